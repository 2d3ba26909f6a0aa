package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"telegram-fetch-bot/internal/filemanager"
	"telegram-fetch-bot/internal/lang"
	"telegram-fetch-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		h.botService.SendMessage(msg.Chat.ID, lang.GetMessage(lang.StartCommandMsgID), nil)
	case "status":
		h.handleStatus(msg)
	case "clean":
		h.handleClean(msg)
	case "quota":
		h.handleQuota(ctx, msg)
	case "cookies":
		h.handleCookiesCommand(ctx, msg)
	default:
		h.botService.SendMessage(msg.Chat.ID, lang.GetMessage(lang.UnknownCommandMsgID), nil)
	}
}

func (h *Handler) handleStatus(msg *tgbotapi.Message) {
	counts := h.registry.CountByStatus()
	var parts []string
	for status, n := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", status, n))
	}
	sort.Strings(parts)
	summary := strings.Join(parts, ", ")
	if summary == "" {
		summary = "none"
	}

	h.botService.SendMessage(msg.Chat.ID,
		lang.GetMessage(lang.StatusMsgID, summary, h.cfg.DownloadDir, utils.DiskUsageString(h.cfg.DownloadDir)), nil)
}

func (h *Handler) handleClean(msg *tgbotapi.Message) {
	removed, err := filemanager.PurgeOld(h.cfg.DownloadDir, h.cfg.DownloadSettings.CleanupAge)
	if err != nil {
		logrus.WithError(err).Error("Cleanup failed")
	}
	if swept := h.registry.SweepTerminal(h.cfg.DownloadSettings.CleanupAge); swept > 0 {
		logrus.WithField("count", swept).Info("Swept stale terminal jobs")
	}
	h.botService.SendMessage(msg.Chat.ID,
		lang.GetMessage(lang.CleanedMsgID, removed, h.cfg.DownloadDir), nil)
}

func (h *Handler) handleQuota(ctx context.Context, msg *tgbotapi.Message) {
	gov := h.manager.Governor()
	jobs, bytes := gov.Usage(ctx, msg.From.ID)
	limits := gov.Limits()
	h.botService.SendMessage(msg.Chat.ID,
		lang.GetMessage(lang.QuotaStatusMsgID,
			jobs, limits.DailyJobs, utils.HumanBytes(bytes), utils.HumanBytes(limits.DailyMB*1024*1024)), nil)
}

// handleCookiesCommand wipes the user's stored cookies.
func (h *Handler) handleCookiesCommand(ctx context.Context, msg *tgbotapi.Message) {
	removed, err := h.db.DeleteCookies(ctx, msg.From.ID)
	if err != nil {
		logrus.WithError(err).Error("Cookie wipe failed")
	}
	h.botService.SendMessage(msg.Chat.ID, lang.GetMessage(lang.CookiesClearedMsgID, removed), nil)
}
