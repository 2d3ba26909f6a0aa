package handlers

import (
	"context"

	"telegram-fetch-bot/internal/downloader"
	"telegram-fetch-bot/internal/downloader/manager"
	"telegram-fetch-bot/internal/lang"
	"telegram-fetch-bot/internal/models"
	"telegram-fetch-bot/internal/prober"
	"telegram-fetch-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const logTailLimit = 3000

func (h *Handler) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	defer h.botService.AnswerCallbackQuery(tgbotapi.NewCallback(query.ID, ""))

	action, jobID, arg, ok := manager.ParseCallback(query.Data)
	if !ok {
		logrus.WithField("data", query.Data).Warn("Malformed callback data")
		return
	}

	job, found := h.registry.Get(jobID)
	if !found {
		// The recovered job gets a fresh id; the stale action does not apply.
		h.recoverFromMessage(ctx, query)
		return
	}

	log := logrus.WithFields(logrus.Fields{"job_id": jobID, "action": action})

	switch action {
	case manager.ActionFormat:
		h.startDownload(job, arg)
	case manager.ActionCancel:
		h.manager.CancelJob(jobID)
	case manager.ActionGeneric:
		h.restartProbe(ctx, job, true, lang.GetMessage(lang.ForceGenericMsgID))
	case manager.ActionRecheck:
		h.restartProbe(ctx, job, job.ForceGeneric, lang.GetMessage(lang.RecheckMsgID))
	case manager.ActionTry:
		h.offerLadder(job)
	case manager.ActionLog:
		h.sendLogTail(job)
	case manager.ActionCommand:
		h.sendCommandPreview(ctx, job)
	case manager.ActionCookie:
		h.promptForCookie(job)
	case manager.ActionCompress:
		if err := h.manager.CompressJob(jobID); err != nil {
			log.WithError(err).Warn("Compress remedy rejected")
		}
	case manager.ActionOffload:
		if err := h.manager.OffloadJob(jobID); err != nil {
			log.WithError(err).Warn("Offload remedy rejected")
		}
	case manager.ActionKeep:
		if err := h.manager.KeepJob(jobID); err != nil {
			log.WithError(err).Warn("Keep remedy rejected")
		}
	default:
		log.Warn("Unknown callback action")
	}
}

// recoverFromMessage rebuilds a job from the URL still present in the message
// the stale callback was attached to. The user gets a fresh selection.
func (h *Handler) recoverFromMessage(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	url := utils.ExtractURL(query.Message.Text)
	if url == "" {
		if err := h.botService.EditMessage(query.Message.Chat.ID, query.Message.MessageID,
			lang.GetMessage(lang.JobExpiredMsgID), nil); err != nil {
			logrus.WithError(err).Debug("Cannot mark message expired")
		}
		return
	}

	job := h.registry.Recover(query.Message.Chat.ID, query.From.ID, url)
	if err := h.registry.SetMessageID(job.ID, query.Message.MessageID); err != nil {
		logrus.WithError(err).Warn("Cannot bind recovered job to message")
	}
	h.editJobMessage(job, lang.GetMessage(lang.JobRecoveredMsgID), nil)
	go h.probeAndPresent(ctx, job.ID)
}

// startDownload reacts to a quality pick: bind the token, move to preparing
// and hand the job to the download manager.
func (h *Handler) startDownload(job models.Job, token string) {
	if err := h.registry.SetFormat(job.ID, token); err != nil {
		logrus.WithError(err).Warn("Cannot set format")
		return
	}
	if err := h.registry.SetStatus(job.ID, models.StatusPreparing); err != nil {
		logrus.WithError(err).WithField("job_id", job.ID).Warn("Format pick on job not awaiting selection")
		return
	}
	h.editJobMessage(job, lang.GetMessage(lang.StartingFormatMsgID, downloader.TokenLabel(token)), nil)
	if err := h.manager.StartJob(job.ID); err != nil {
		logrus.WithError(err).Error("Cannot start job")
	}
}

// restartProbe re-runs probing for a settled job (recheck / force generic).
func (h *Handler) restartProbe(ctx context.Context, job models.Job, forceGeneric bool, note string) {
	if err := h.registry.ResetForRetry(job.ID); err != nil {
		logrus.WithError(err).Warn("Cannot reset job for retry")
		return
	}
	if err := h.registry.SetForceGeneric(job.ID, forceGeneric); err != nil {
		logrus.WithError(err).Warn("Cannot set extractor mode")
	}
	h.editJobMessage(job, note, nil)
	go h.probeAndPresent(ctx, job.ID)
}

// offerLadder presents the fixed best-effort quality set after the user
// chose to try an unsupported or challenged site anyway.
func (h *Handler) offerLadder(job models.Job) {
	if err := h.registry.SetStatus(job.ID, models.StatusProbing); err != nil {
		logrus.WithError(err).Warn("Cannot re-enter probing state")
		return
	}
	if err := h.registry.SetProbeInfo(job.ID, job.Title, job.MediaID, job.Duration, job.SniffedHLS, job.SniffedMP4, true); err != nil {
		logrus.WithError(err).Warn("Cannot mark job best-effort")
	}
	if err := h.registry.SetStatus(job.ID, models.StatusAwaitingSelection); err != nil {
		logrus.WithError(err).Warn("Cannot enter selection state")
		return
	}
	h.editJobMessage(job,
		lang.GetMessage(lang.PickQualityMsgID, utils.EscapeHTML(job.URL), "(quality is a guess)"),
		manager.QualityKeyboard(job.ID, prober.LadderOptions()))
}

func (h *Handler) sendLogTail(job models.Job) {
	if job.Log == "" {
		h.botService.SendMessage(job.ChatID, lang.GetMessage(lang.LogEmptyMsgID), nil)
		return
	}
	tail := job.Log
	if len(tail) > logTailLimit {
		tail = tail[len(tail)-logTailLimit:]
	}
	h.botService.SendMessage(job.ChatID,
		lang.GetMessage(lang.LogTailMsgID, "<pre>"+utils.EscapeHTML(tail)+"</pre>"), nil)
}

func (h *Handler) sendCommandPreview(ctx context.Context, job models.Job) {
	opts := h.manager.EngineOptionsFor(job, h.cookieFor(ctx, job))
	preview := downloader.CommandPreview(opts)
	h.botService.SendMessage(job.ChatID,
		lang.GetMessage(lang.CommandPreviewMsgID, "<pre>"+utils.EscapeHTML(preview)+"</pre>"), nil)
}

func (h *Handler) promptForCookie(job models.Job) {
	promptID, err := h.botService.SendMessageReturningID(job.ChatID,
		lang.GetMessage(lang.CookiePromptMsgID), nil)
	if err != nil {
		logrus.WithError(err).Error("Cannot send cookie prompt")
		return
	}
	h.rememberPrompt(promptID, job.UserID, job.ID)
}
