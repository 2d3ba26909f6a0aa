package handlers

import (
	"context"
	"errors"

	"telegram-fetch-bot/internal/downloader/manager"
	"telegram-fetch-bot/internal/lang"
	"telegram-fetch-bot/internal/models"
	"telegram-fetch-bot/internal/prober"
	"telegram-fetch-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// handleLink is the job intake path: quota gate, job creation, a bound
// "probing" message, then an async probe.
func (h *Handler) handleLink(ctx context.Context, msg *tgbotapi.Message, url string) {
	if !utils.IsValidLink(url) {
		h.botService.SendMessage(msg.Chat.ID, lang.GetMessage(lang.UnknownCommandMsgID), nil)
		return
	}

	gov := h.manager.Governor()
	if err := gov.CheckQuota(ctx, msg.From.ID); err != nil {
		limits := gov.Limits()
		h.botService.SendMessage(msg.Chat.ID,
			lang.GetMessage(lang.QuotaExceededMsgID, limits.DailyJobs, utils.HumanBytes(limits.DailyMB*1024*1024)), nil)
		return
	}

	job := h.registry.Create(msg.Chat.ID, msg.From.ID, url)

	messageID, err := h.botService.SendMessageReturningID(msg.Chat.ID,
		lang.GetMessage(lang.ProbingMsgID, utils.EscapeHTML(url)), nil)
	if err != nil {
		logrus.WithError(err).Error("Cannot send probing message")
		h.registry.Remove(job.ID)
		return
	}
	if err := h.registry.SetMessageID(job.ID, messageID); err != nil {
		logrus.WithError(err).Warn("Cannot bind message to job")
	}

	go h.probeAndPresent(ctx, job.ID)
}

// probeAndPresent runs the prober and edits the bound message into either a
// quality keyboard or a classified failure with its remediation actions.
func (h *Handler) probeAndPresent(ctx context.Context, jobID string) {
	job, ok := h.registry.Get(jobID)
	if !ok {
		return
	}
	if err := h.registry.SetStatus(jobID, models.StatusProbing); err != nil {
		logrus.WithError(err).WithField("job_id", jobID).Error("Cannot enter probing state")
		return
	}

	cookieHeader := h.cookieFor(ctx, job)
	result, err := h.prober.Probe(ctx, job.URL, cookieHeader, job.ForceGeneric)
	if err != nil {
		h.presentProbeFailure(job, err)
		return
	}

	hls, mp4 := "", ""
	if result.Direct != nil {
		switch result.Direct.Kind {
		case "hls":
			hls = result.Direct.URL
		case "mp4":
			mp4 = result.Direct.URL
		}
	}
	if err := h.registry.SetProbeInfo(jobID, result.Title, result.MediaID, result.Duration, hls, mp4, result.BestEffort); err != nil {
		logrus.WithError(err).Warn("Cannot record probe info")
	}
	if err := h.registry.SetStatus(jobID, models.StatusAwaitingSelection); err != nil {
		logrus.WithError(err).WithField("job_id", jobID).Error("Cannot enter selection state")
		return
	}

	title := result.Title
	if title == "" {
		title = utils.DomainFromURL(job.URL)
	}
	if result.BestEffort {
		title += " (quality is a guess)"
	}
	h.editJobMessage(job,
		lang.GetMessage(lang.PickQualityMsgID, utils.EscapeHTML(job.URL), utils.EscapeHTML(title)),
		manager.QualityKeyboard(jobID, result.Options))
}

func (h *Handler) presentProbeFailure(job models.Job, err error) {
	if setErr := h.registry.SetStatus(job.ID, models.StatusFailed); setErr != nil {
		logrus.WithError(setErr).WithField("job_id", job.ID).Debug("Cannot fail probing job")
	}
	h.registry.AppendLog(job.ID, utils.StripCookieValues(err.Error()))

	if errors.Is(err, utils.ErrDrmProtected) {
		h.editJobMessage(job, lang.GetMessage(lang.DrmNotSupportedMsgID), nil)
		return
	}

	var failure *prober.Failure
	if errors.As(err, &failure) {
		reason := utils.EscapeHTML(utils.StripCookieValues(failure.Reason))
		switch failure.Kind {
		case utils.FailureNeedsAuth:
			h.editJobMessage(job,
				lang.GetMessage(lang.ProbeFailedMsgID, utils.EscapeHTML(job.URL), reason)+
					"\n\n"+lang.GetMessage(lang.NeedsAuthHintMsgID),
				manager.AuthKeyboard(job.ID))
		case utils.FailureBotChallenge:
			h.editJobMessage(job,
				lang.GetMessage(lang.ProbeFailedMsgID, utils.EscapeHTML(job.URL), reason)+
					"\n\n"+lang.GetMessage(lang.BotChallengeHintMsgID),
				manager.TryKeyboard(job.ID))
		default:
			h.editJobMessage(job,
				lang.GetMessage(lang.ProbeFailedMsgID, utils.EscapeHTML(job.URL), reason)+
					"\n\n"+lang.GetMessage(lang.UnsupportedHintMsgID),
				manager.TryKeyboard(job.ID))
		}
		return
	}

	h.editJobMessage(job,
		lang.GetMessage(lang.ProbeFailedMsgID, utils.EscapeHTML(job.URL),
			utils.EscapeHTML(utils.DownloadErrorMessage(err))),
		manager.FailureKeyboard(job.ID))
}

func (h *Handler) cookieFor(ctx context.Context, job models.Job) string {
	domain := utils.DomainFromURL(job.URL)
	if domain == "" {
		return ""
	}
	cookie, err := h.db.GetCookie(ctx, job.UserID, domain)
	if err != nil {
		logrus.WithError(err).Warn("Cookie lookup failed")
		return ""
	}
	return cookie
}

func (h *Handler) editJobMessage(job models.Job, text string, keyboard any) {
	if job.MessageID == 0 {
		h.botService.SendMessage(job.ChatID, text, keyboard)
		return
	}
	if err := h.botService.EditMessage(job.ChatID, job.MessageID, text, keyboard); err != nil {
		logrus.WithError(err).Debug("Job message edit failed")
	}
}
