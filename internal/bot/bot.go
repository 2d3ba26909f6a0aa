package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Service is the transport contract the core needs: send, edit and delete
// messages and upload files. Edits and deletes are best-effort; their errors
// are returned so callers can decide whether to care.
type Service interface {
	SendMessage(chatID int64, text string, keyboard any)
	SendMessageReturningID(chatID int64, text string, keyboard any) (int, error)
	EditMessage(chatID int64, messageID int, text string, keyboard any) error
	DeleteMessage(chatID int64, messageID int) error
	SendVideo(chatID int64, path, caption string) error
	SendDocument(chatID int64, path, caption string) error
	AnswerCallbackQuery(config tgbotapi.CallbackConfig)
}

type Bot struct {
	Api *tgbotapi.BotAPI
}

func InitBot(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logrus.WithError(err).Error("Error creating bot")
		return nil, fmt.Errorf("error creating bot: %w", err)
	}
	logrus.Infof("Authorized on account %s", api.Self.UserName)
	return &Bot{Api: api}, nil
}

func (b *Bot) SendMessage(chatID int64, text string, keyboard any) {
	if _, err := b.SendMessageReturningID(chatID, text, keyboard); err != nil {
		logrus.WithError(err).Error("Message not sent")
	}
}

func (b *Bot) SendMessageReturningID(chatID int64, text string, keyboard any) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	sent, err := b.Api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, keyboard any) error {
	var cfg tgbotapi.Chattable
	if markup, ok := keyboard.(tgbotapi.InlineKeyboardMarkup); ok {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
		edit.ParseMode = tgbotapi.ModeHTML
		cfg = edit
	} else {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		edit.ParseMode = tgbotapi.ModeHTML
		cfg = edit
	}

	if _, err := b.Api.Send(cfg); err != nil {
		// Identical text is not an error worth surfacing.
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return err
	}
	return nil
}

func (b *Bot) DeleteMessage(chatID int64, messageID int) error {
	deleteMsg := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := b.Api.Request(deleteMsg); err != nil {
		logrus.WithError(err).Debug("Failed to delete message")
		return err
	}
	return nil
}

func (b *Bot) SendVideo(chatID int64, path, caption string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	video.Caption = caption
	video.ParseMode = tgbotapi.ModeHTML
	video.SupportsStreaming = true
	_, err := b.Api.Send(video)
	return err
}

func (b *Bot) SendDocument(chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML
	_, err := b.Api.Send(doc)
	return err
}

func (b *Bot) AnswerCallbackQuery(config tgbotapi.CallbackConfig) {
	if _, err := b.Api.Request(config); err != nil {
		logrus.WithError(err).Warn("Failed to answer callback query")
	}
}
