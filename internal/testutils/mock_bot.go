package testutils

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SentMessage records one outgoing call on the mock bot.
type SentMessage struct {
	Kind      string // "send", "edit", "delete", "video", "document"
	ChatID    int64
	MessageID int
	Text      string
	Path      string
	Keyboard  any
}

// MockBot implements bot.Service and records every call for assertions.
type MockBot struct {
	mu       sync.Mutex
	Messages []SentMessage

	nextMessageID int

	SendErr     error
	EditErr     error
	VideoErr    error
	DocumentErr error
}

func NewMockBot() *MockBot {
	return &MockBot{nextMessageID: 100}
}

func (m *MockBot) record(msg SentMessage) {
	m.mu.Lock()
	m.Messages = append(m.Messages, msg)
	m.mu.Unlock()
}

func (m *MockBot) SendMessage(chatID int64, text string, keyboard any) {
	_, _ = m.SendMessageReturningID(chatID, text, keyboard)
}

func (m *MockBot) SendMessageReturningID(chatID int64, text string, keyboard any) (int, error) {
	if m.SendErr != nil {
		return 0, m.SendErr
	}
	m.mu.Lock()
	m.nextMessageID++
	id := m.nextMessageID
	m.mu.Unlock()
	m.record(SentMessage{Kind: "send", ChatID: chatID, MessageID: id, Text: text, Keyboard: keyboard})
	return id, nil
}

func (m *MockBot) EditMessage(chatID int64, messageID int, text string, keyboard any) error {
	if m.EditErr != nil {
		return m.EditErr
	}
	m.record(SentMessage{Kind: "edit", ChatID: chatID, MessageID: messageID, Text: text, Keyboard: keyboard})
	return nil
}

func (m *MockBot) DeleteMessage(chatID int64, messageID int) error {
	m.record(SentMessage{Kind: "delete", ChatID: chatID, MessageID: messageID})
	return nil
}

func (m *MockBot) SendVideo(chatID int64, path, caption string) error {
	if m.VideoErr != nil {
		return m.VideoErr
	}
	m.record(SentMessage{Kind: "video", ChatID: chatID, Path: path, Text: caption})
	return nil
}

func (m *MockBot) SendDocument(chatID int64, path, caption string) error {
	if m.DocumentErr != nil {
		return m.DocumentErr
	}
	m.record(SentMessage{Kind: "document", ChatID: chatID, Path: path, Text: caption})
	return nil
}

func (m *MockBot) AnswerCallbackQuery(config tgbotapi.CallbackConfig) {
	m.record(SentMessage{Kind: "callback"})
}

// Sent returns a snapshot of recorded calls.
func (m *MockBot) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.Messages))
	copy(out, m.Messages)
	return out
}

// LastOfKind returns the most recent call of a kind.
func (m *MockBot) LastOfKind(kind string) (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].Kind == kind {
			return m.Messages[i], true
		}
	}
	return SentMessage{}, false
}
