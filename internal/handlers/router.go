package handlers

import (
	"context"
	"sync"

	"telegram-fetch-bot/internal/bot"
	"telegram-fetch-bot/internal/config"
	"telegram-fetch-bot/internal/database"
	"telegram-fetch-bot/internal/downloader/manager"
	"telegram-fetch-bot/internal/lang"
	"telegram-fetch-bot/internal/prober"
	"telegram-fetch-bot/internal/registry"
	"telegram-fetch-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// cookiePrompt tracks a "paste your cookie" message awaiting a reply.
type cookiePrompt struct {
	userID int64
	jobID  string
}

// Handler routes incoming updates to commands, link intake, cookie replies
// and callback actions.
type Handler struct {
	cfg        *config.Config
	botService bot.Service
	db         database.Database
	registry   *registry.Registry
	manager    *manager.Manager
	prober     *prober.Prober

	mu      sync.Mutex
	prompts map[int]cookiePrompt // prompt message id -> waiting state
}

func NewHandler(cfg *config.Config, botService bot.Service, db database.Database, reg *registry.Registry, mgr *manager.Manager) *Handler {
	return &Handler{
		cfg:        cfg,
		botService: botService,
		db:         db,
		registry:   reg,
		manager:    mgr,
		prober:     prober.New(""),
		prompts:    make(map[int]cookiePrompt),
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
		return
	}
	if msg.ReplyToMessage != nil && h.isCookiePrompt(msg.ReplyToMessage.MessageID) {
		h.handleCookieReply(ctx, msg)
		return
	}
	if url := utils.ExtractURL(msg.Text); url != "" {
		h.handleLink(ctx, msg, url)
		return
	}
	logrus.WithField("chat_id", msg.Chat.ID).Debug("Ignoring message without URL")
	h.botService.SendMessage(msg.Chat.ID, lang.GetMessage(lang.UnknownCommandMsgID), nil)
}

func (h *Handler) isCookiePrompt(messageID int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.prompts[messageID]
	return ok
}

func (h *Handler) rememberPrompt(messageID int, userID int64, jobID string) {
	h.mu.Lock()
	h.prompts[messageID] = cookiePrompt{userID: userID, jobID: jobID}
	h.mu.Unlock()
}

func (h *Handler) takePrompt(messageID int) (cookiePrompt, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.prompts[messageID]
	if ok {
		delete(h.prompts, messageID)
	}
	return p, ok
}
