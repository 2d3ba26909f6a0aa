package handlers

import (
	"context"
	"strings"

	"telegram-fetch-bot/internal/lang"
	"telegram-fetch-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// handleCookieReply stores a pasted Cookie header keyed by the target job's
// domain, deletes the user's message so the raw value does not linger in the
// chat, and re-runs the probe with credentials attached.
func (h *Handler) handleCookieReply(ctx context.Context, msg *tgbotapi.Message) {
	prompt, ok := h.takePrompt(msg.ReplyToMessage.MessageID)
	if !ok {
		return
	}

	value, valid := ParseCookieHeader(msg.Text)
	if !valid {
		h.rememberPrompt(msg.ReplyToMessage.MessageID, prompt.userID, prompt.jobID)
		h.botService.SendMessage(msg.Chat.ID, lang.GetMessage(lang.CookieInvalidMsgID), nil)
		return
	}

	// The raw cookie should not stay visible in the chat history.
	if err := h.botService.DeleteMessage(msg.Chat.ID, msg.MessageID); err != nil {
		logrus.WithError(err).Debug("Cannot delete cookie message")
	}

	job, found := h.registry.Get(prompt.jobID)
	if !found {
		h.botService.SendMessage(msg.Chat.ID, lang.GetMessage(lang.JobExpiredMsgID), nil)
		return
	}

	domain := utils.DomainFromURL(job.URL)
	if err := h.db.SetCookie(ctx, prompt.userID, domain, value); err != nil {
		logrus.WithError(err).Error("Cannot store cookie")
		return
	}
	h.botService.SendMessage(msg.Chat.ID,
		lang.GetMessage(lang.CookieSavedMsgID, domain, utils.SanitizedCookiePreview(value)), nil)

	h.restartProbe(ctx, job, job.ForceGeneric, lang.GetMessage(lang.RecheckMsgID))
}

// ParseCookieHeader normalizes a pasted Cookie header. The leading "Cookie:"
// label is optional; the value must contain at least one key=value pair.
func ParseCookieHeader(text string) (string, bool) {
	value := strings.TrimSpace(text)
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "cookie:") {
		value = strings.TrimSpace(value[len("cookie:"):])
	}
	if value == "" || !strings.Contains(value, "=") {
		return "", false
	}
	if strings.ContainsAny(value, "\n\r") {
		return "", false
	}
	return value, true
}
