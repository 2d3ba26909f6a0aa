package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"telegram-fetch-bot/internal/bot"
	"telegram-fetch-bot/internal/compress"
	"telegram-fetch-bot/internal/config"
	"telegram-fetch-bot/internal/database"
	"telegram-fetch-bot/internal/delivery"
	"telegram-fetch-bot/internal/downloader"
	"telegram-fetch-bot/internal/filemanager"
	"telegram-fetch-bot/internal/lang"
	"telegram-fetch-bot/internal/models"
	"telegram-fetch-bot/internal/offload"
	"telegram-fetch-bot/internal/registry"
	"telegram-fetch-bot/internal/resolver"
	"telegram-fetch-bot/internal/utils"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Manager runs admitted jobs through the fallback ladder and the outcome
// flow. One goroutine per job; all UI updates go through the relay.
type Manager struct {
	cfg        *config.Config
	registry   *registry.Registry
	botService bot.Service
	db         database.Database
	governor   *Governor
	relay      *Relay
	deliverer  *delivery.Adapter
	compressor *compress.Compressor
	offloader  *offload.Client

	engineBinary string
	httpClient   *resty.Client

	rootCtx context.Context
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewManager(ctx context.Context, cfg *config.Config, reg *registry.Registry, botService bot.Service, db database.Database) *Manager {
	m := &Manager{
		cfg:          cfg,
		registry:     reg,
		botService:   botService,
		db:           db,
		governor:     NewGovernor(cfg, db),
		relay:        NewRelay(botService, cfg.DownloadSettings.ProgressEditInterval),
		deliverer:    delivery.New(botService, cfg.DeliverySettings),
		compressor:   compress.New(cfg.CompressSettings),
		offloader:    offload.New(cfg.OffloadSettings.Endpoint),
		engineBinary: downloader.DefaultBinary,
		httpClient:   newRawClient(cfg.DownloadSettings.DownloadTimeout),
		rootCtx:      ctx,
		cancels:      make(map[string]context.CancelFunc),
	}
	m.relay.Start(ctx)
	return m
}

func (m *Manager) Governor() *Governor { return m.governor }

func (m *Manager) OffloadEnabled() bool { return m.offloader.Enabled() }

func (m *Manager) outputTemplate() string {
	return filepath.Join(m.cfg.DownloadDir, "%(title).150B [%(id)s].%(ext)s")
}

// EngineOptionsFor rebuilds the options a job's primary rung would use, for
// the command preview.
func (m *Manager) EngineOptionsFor(job models.Job, cookieHeader string) *downloader.Options {
	return &downloader.Options{
		URL:                 job.URL,
		Selector:            downloader.BuildSelector(job.Format),
		OutputTemplate:      m.outputTemplate(),
		ForceGeneric:        job.ForceGeneric,
		CookieHeader:        cookieHeader,
		ConcurrentFragments: m.cfg.DownloadSettings.ConcurrentFragments,
		ExtractMP3:          downloader.IsAudioToken(job.Format),
		Binary:              m.engineBinary,
	}
}

// StartJob launches the download worker for a job that has its format chosen
// and sits in the preparing state.
func (m *Manager) StartJob(jobID string) error {
	job, ok := m.registry.Get(jobID)
	if !ok {
		return utils.ErrJobNotFound
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if timeout := m.cfg.DownloadSettings.DownloadTimeout; timeout > 0 {
		ctx, cancel = context.WithTimeout(m.rootCtx, timeout)
	} else {
		ctx, cancel = context.WithCancel(m.rootCtx)
	}

	m.mu.Lock()
	m.cancels[jobID] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.dropCancel(jobID)
		m.runJob(ctx, job.ID)
	}()
	return nil
}

// CancelJob raises the cancellation flag and, when no worker is running
// (awaiting selection or offered remedy), settles the job immediately.
func (m *Manager) CancelJob(jobID string) {
	if !m.registry.Cancel(jobID) {
		return
	}

	m.mu.Lock()
	cancel, running := m.cancels[jobID]
	m.mu.Unlock()
	if running {
		cancel()
		return
	}

	job, ok := m.registry.Get(jobID)
	if !ok {
		return
	}
	m.settleCancelled(job)
}

// Shutdown cancels all workers and waits for them to drain.
func (m *Manager) Shutdown() {
	if active := m.registry.ActiveJobIDs(); len(active) > 0 {
		logrus.WithField("count", len(active)).Info("Interrupting active jobs")
	}
	m.mu.Lock()
	for _, cancel := range m.cancels {
		cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) dropCancel(jobID string) {
	m.mu.Lock()
	if cancel, ok := m.cancels[jobID]; ok {
		cancel()
		delete(m.cancels, jobID)
	}
	m.mu.Unlock()
}

func (m *Manager) runJob(ctx context.Context, jobID string) {
	job, ok := m.registry.Get(jobID)
	if !ok {
		return
	}
	log := logrus.WithFields(logrus.Fields{"job_id": jobID, "url": job.URL})

	m.relay.PublishFinal(job.ChatID, job.MessageID,
		lang.GetMessage(lang.QueuedMsgID, utils.EscapeHTML(job.URL)), CancelKeyboard(jobID))

	permit, err := m.governor.Admit(ctx, job.UserID)
	if err != nil {
		if errors.Is(err, utils.ErrUserBusy) {
			m.relay.PublishFinal(job.ChatID, job.MessageID,
				lang.GetMessage(lang.UserBusyMsgID, m.governor.ActiveFor(job.UserID)), nil)
			m.failJob(job, err)
			return
		}
		m.settleCancelled(job)
		return
	}
	defer permit.Release()

	if m.registry.IsCancelled(jobID) || ctx.Err() != nil {
		m.settleCancelled(job)
		return
	}

	if !utils.HasEnoughSpace(m.cfg.DownloadDir, m.cfg.DeliveryCeilingBytes()) {
		m.relay.PublishFinal(job.ChatID, job.MessageID,
			lang.GetMessage(lang.NotEnoughDiskSpaceMsgID), nil)
		m.failJob(job, utils.ErrDownloadFailed)
		return
	}

	if err := m.registry.SetStatus(jobID, models.StatusDownloading); err != nil {
		log.WithError(err).Error("Cannot enter downloading state")
		return
	}

	cookieHeader := m.cookieFor(ctx, job)
	attempts := m.buildAttempts(job, cookieHeader)

	var outPath string
	var lastErr error
	for _, att := range attempts {
		if ctx.Err() != nil || m.registry.IsCancelled(jobID) {
			m.settleCancelled(job)
			return
		}

		log.WithField("strategy", att.name).Info("Starting download attempt")
		m.registry.AppendLog(jobID, "strategy: "+att.name)

		outPath, lastErr = att.run(ctx)
		if lastErr == nil {
			break
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, utils.ErrCancelled) {
			m.settleCancelled(job)
			return
		}
		if utils.IsDRMError(lastErr.Error()) {
			// No rung can strip DRM; fail immediately.
			m.registry.AppendLog(jobID, utils.StripCookieValues(lastErr.Error()))
			m.relay.PublishFinal(job.ChatID, job.MessageID,
				lang.GetMessage(lang.DrmNotSupportedMsgID), FailureKeyboard(jobID))
			m.failJob(job, utils.ErrDrmProtected)
			return
		}
		log.WithError(lastErr).WithField("strategy", att.name).Warn("Download attempt failed")
		m.registry.AppendLog(jobID, utils.StripCookieValues(lastErr.Error()))
	}

	if lastErr != nil {
		m.relay.PublishFinal(job.ChatID, job.MessageID,
			lang.GetMessage(lang.DownloadFailedMsgID, utils.EscapeHTML(utils.DownloadErrorMessage(lastErr))),
			FailureKeyboard(jobID))
		m.failJob(job, lastErr)
		return
	}

	if err := m.registry.SetFilePath(jobID, outPath); err != nil {
		log.WithError(err).Error("Cannot record output path")
	}
	if err := m.registry.SetStatus(jobID, models.StatusFinalizing); err != nil {
		log.WithError(err).Error("Cannot enter finalizing state")
		return
	}
	m.finalize(ctx, jobID, outPath)
}

// finalize measures the finished file and routes it to delivery or to the
// too-large remedy flow. Also reached again after a compression pass.
func (m *Manager) finalize(ctx context.Context, jobID, path string) {
	job, ok := m.registry.Get(jobID)
	if !ok {
		return
	}

	outcome, err := resolver.Resolve(path, m.cfg.DeliveryCeilingBytes())
	if err != nil {
		m.relay.PublishFinal(job.ChatID, job.MessageID,
			lang.GetMessage(lang.FileNotFoundMsgID), FailureKeyboard(jobID))
		m.failJob(job, err)
		return
	}

	if outcome.Verdict == resolver.VerdictTooLarge {
		if err := m.registry.SetStatus(jobID, models.StatusTooLarge); err != nil {
			logrus.WithError(err).Error("Cannot enter too_large state")
			return
		}
		if err := m.registry.SetStatus(jobID, models.StatusOfferedRemedy); err != nil {
			logrus.WithError(err).Error("Cannot offer remedy")
			return
		}
		m.relay.PublishFinal(job.ChatID, job.MessageID,
			lang.GetMessage(lang.TooLargeMsgID, utils.HumanBytes(outcome.Size), utils.HumanBytes(outcome.Ceiling)),
			RemedyKeyboard(jobID, m.offloader.Enabled()))
		return
	}

	m.deliverJob(ctx, job, path, outcome.Size)
}

func (m *Manager) deliverJob(ctx context.Context, job models.Job, path string, size int64) {
	if err := m.registry.SetStatus(job.ID, models.StatusDelivering); err != nil {
		logrus.WithError(err).Error("Cannot enter delivering state")
		return
	}

	caption := utils.EscapeHTML(job.Title)
	if caption == "" {
		caption = utils.EscapeHTML(job.URL)
	}

	if err := m.deliverer.Deliver(job.ChatID, path, caption); err != nil {
		logrus.WithError(err).WithField("job_id", job.ID).Error("Delivery failed")
		kept := path
		if m.deliverer.CleanupAfterFailure() {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				logrus.WithError(rmErr).Warn("Failed to remove file after upload failure")
			}
			kept = "(removed)"
		}
		m.relay.PublishFinal(job.ChatID, job.MessageID,
			lang.GetMessage(lang.UploadFailedMsgID, utils.EscapeHTML(utils.DownloadErrorMessage(err)), utils.EscapeHTML(kept)),
			FailureKeyboard(job.ID))
		m.failJob(job, err)
		return
	}

	m.governor.RecordUsage(ctx, job.UserID, size)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to remove delivered file")
	}
	if err := m.registry.SetStatus(job.ID, models.StatusDone); err != nil {
		logrus.WithError(err).Error("Cannot enter done state")
	}
	m.relay.PublishFinal(job.ChatID, job.MessageID,
		lang.GetMessage(lang.DeliveredMsgID, caption, utils.HumanBytes(size)), nil)
	m.relay.Forget(job.ID)
	// Delivered jobs have nothing left to remediate; drop the record.
	m.registry.Remove(job.ID)
}

// CompressJob runs the compression remedy. Called from the remedy keyboard.
func (m *Manager) CompressJob(jobID string) error {
	job, ok := m.registry.Get(jobID)
	if !ok {
		return utils.ErrJobNotFound
	}
	if err := m.registry.SetStatus(jobID, models.StatusCompressing); err != nil {
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		targetMB := m.cfg.CompressTargetMB()
		m.relay.PublishFinal(job.ChatID, job.MessageID,
			lang.GetMessage(lang.CompressingMsgID, utils.HumanBytes(targetMB*1024*1024)), nil)

		dst, err := m.compressor.Compress(m.rootCtx, job.FilePath, targetMB)
		if err != nil {
			logrus.WithError(err).WithField("job_id", jobID).Warn("Compression remedy failed")
			m.relay.PublishFinal(job.ChatID, job.MessageID,
				lang.GetMessage(lang.CompressionFailedMsgID, utils.EscapeHTML(job.FilePath)), nil)
			m.failJob(job, err)
			return
		}

		if rmErr := os.Remove(job.FilePath); rmErr != nil && !os.IsNotExist(rmErr) {
			logrus.WithError(rmErr).Warn("Failed to remove original after compression")
		}
		if err := m.registry.SetFilePath(jobID, dst); err != nil {
			logrus.WithError(err).Error("Cannot record compressed path")
		}
		if err := m.registry.SetStatus(jobID, models.StatusFinalizing); err != nil {
			logrus.WithError(err).Error("Cannot re-enter finalizing state")
			return
		}
		m.finalize(m.rootCtx, jobID, dst)
	}()
	return nil
}

// OffloadJob runs the external-storage remedy.
func (m *Manager) OffloadJob(jobID string) error {
	job, ok := m.registry.Get(jobID)
	if !ok {
		return utils.ErrJobNotFound
	}
	if err := m.registry.SetStatus(jobID, models.StatusDelivering); err != nil {
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.relay.PublishFinal(job.ChatID, job.MessageID, lang.GetMessage(lang.OffloadingMsgID), nil)

		target, err := m.offloader.Upload(m.rootCtx, job.FilePath)
		if err != nil {
			m.relay.PublishFinal(job.ChatID, job.MessageID,
				lang.GetMessage(lang.OffloadFailedMsgID,
					utils.EscapeHTML(utils.DownloadErrorMessage(err)), utils.EscapeHTML(job.FilePath)), nil)
			m.failJob(job, err)
			return
		}

		size := fileSize(job.FilePath)
		m.governor.RecordUsage(m.rootCtx, job.UserID, size)
		if rmErr := os.Remove(job.FilePath); rmErr != nil && !os.IsNotExist(rmErr) {
			logrus.WithError(rmErr).Warn("Failed to remove offloaded file")
		}
		if err := m.registry.SetStatus(jobID, models.StatusDone); err != nil {
			logrus.WithError(err).Error("Cannot enter done state")
		}
		m.relay.PublishFinal(job.ChatID, job.MessageID,
			lang.GetMessage(lang.OffloadDoneMsgID, utils.EscapeHTML(target)), nil)
		m.relay.Forget(jobID)
		m.registry.Remove(jobID)
	}()
	return nil
}

// KeepJob settles a too-large job by leaving the file on disk.
func (m *Manager) KeepJob(jobID string) error {
	job, ok := m.registry.Get(jobID)
	if !ok {
		return utils.ErrJobNotFound
	}
	if err := m.registry.SetStatus(jobID, models.StatusDone); err != nil {
		return err
	}
	m.relay.PublishFinal(job.ChatID, job.MessageID,
		lang.GetMessage(lang.KeptLocallyMsgID, utils.EscapeHTML(job.FilePath), utils.HumanBytes(fileSize(job.FilePath))), nil)
	m.relay.Forget(jobID)
	m.registry.Remove(jobID)
	return nil
}

func (m *Manager) settleCancelled(job models.Job) {
	current, ok := m.registry.Get(job.ID)
	if !ok || current.Status.IsTerminal() {
		return
	}
	if err := m.registry.SetStatus(job.ID, models.StatusCancelled); err != nil {
		logrus.WithError(err).WithField("job_id", job.ID).Warn("Cannot enter cancelled state")
		return
	}
	filemanager.RemoveJobFiles(m.cfg.DownloadDir, current.FilePath, current.MediaID)
	m.relay.PublishFinal(job.ChatID, job.MessageID,
		lang.GetMessage(lang.CancelledMsgID, utils.EscapeHTML(job.URL)), nil)
	m.relay.Forget(job.ID)
	m.registry.Remove(job.ID)
}

// failJob moves the job to failed. The caller has already posted the
// user-facing message; this only settles state. Failed jobs stay registered
// so the recheck/log/command buttons keep working; /clean sweeps them.
func (m *Manager) failJob(job models.Job, cause error) {
	if err := m.registry.SetStatus(job.ID, models.StatusFailed); err != nil {
		logrus.WithError(err).WithField("job_id", job.ID).Debug("Cannot enter failed state")
	}
	m.registry.AppendLog(job.ID, utils.StripCookieValues(cause.Error()))
	m.relay.Forget(job.ID)
}

func (m *Manager) cookieFor(ctx context.Context, job models.Job) string {
	domain := utils.DomainFromURL(job.URL)
	if domain == "" {
		return ""
	}
	cookie, err := m.db.GetCookie(ctx, job.UserID, domain)
	if err != nil {
		logrus.WithError(err).Warn("Cookie lookup failed")
		return ""
	}
	return cookie
}

func (m *Manager) onEngineProgress(job models.Job, p downloader.Progress) {
	if m.registry.IsCancelled(job.ID) {
		m.mu.Lock()
		if cancel, ok := m.cancels[job.ID]; ok {
			cancel()
		}
		m.mu.Unlock()
		return
	}
	if p.Destination != "" && p.Percent == 0 {
		return
	}
	text := lang.GetMessage(lang.DownloadingMsgID, utils.EscapeHTML(job.URL), downloader.FormatProgressLine(p))
	m.relay.Publish(job.ID, job.ChatID, job.MessageID, text, CancelKeyboard(job.ID))
}

func (m *Manager) onRawProgress(job models.Job, downloaded, total int64) {
	text := lang.GetMessage(lang.DownloadingMsgID, utils.EscapeHTML(job.URL),
		downloader.FormatRawProgress(downloaded, total, utils.HumanBytes))
	m.relay.Publish(job.ID, job.ChatID, job.MessageID, text, CancelKeyboard(job.ID))
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
