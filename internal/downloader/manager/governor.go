package manager

import (
	"context"
	"sync"
	"time"

	"telegram-fetch-bot/internal/config"
	"telegram-fetch-bot/internal/database"
	"telegram-fetch-bot/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const quotaDayFormat = "2006-01-02"

// Governor enforces the three admission limits: a global concurrency cap,
// a per-user concurrency cap and a per-user daily quota. Admission happens
// after format selection so queued jobs hold no resources while the user
// is still deciding.
type Governor struct {
	global  *semaphore.Weighted
	perUser int

	mu     sync.Mutex
	active map[int64]int

	quota  database.QuotaStore
	limits config.QuotaConfig
}

// Permit represents one admitted download slot. Release must be called
// exactly once; it is safe to defer.
type Permit struct {
	once sync.Once
	free func()
}

func (p *Permit) Release() {
	p.once.Do(p.free)
}

func NewGovernor(cfg *config.Config, quota database.QuotaStore) *Governor {
	maxGlobal := cfg.DownloadSettings.MaxConcurrentDownloads
	if maxGlobal < 1 {
		maxGlobal = 1
	}
	perUser := cfg.DownloadSettings.MaxPerUserDownloads
	if perUser < 1 {
		perUser = 1
	}
	return &Governor{
		global:  semaphore.NewWeighted(int64(maxGlobal)),
		perUser: perUser,
		active:  make(map[int64]int),
		quota:   quota,
		limits:  cfg.QuotaSettings,
	}
}

// Admit blocks until a global slot is free, then claims a per-user slot.
// ErrUserBusy is returned without blocking when the user is already at
// their concurrency cap.
func (g *Governor) Admit(ctx context.Context, userID int64) (*Permit, error) {
	g.mu.Lock()
	if g.active[userID] >= g.perUser {
		g.mu.Unlock()
		return nil, utils.ErrUserBusy
	}
	g.active[userID]++
	g.mu.Unlock()

	if err := g.global.Acquire(ctx, 1); err != nil {
		g.releaseUser(userID)
		return nil, err
	}

	return &Permit{free: func() {
		g.global.Release(1)
		g.releaseUser(userID)
	}}, nil
}

func (g *Governor) releaseUser(userID int64) {
	g.mu.Lock()
	if g.active[userID] > 0 {
		g.active[userID]--
	}
	if g.active[userID] == 0 {
		delete(g.active, userID)
	}
	g.mu.Unlock()
}

// ActiveFor reports the user's currently admitted downloads.
func (g *Governor) ActiveFor(userID int64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active[userID]
}

// CheckQuota verifies the user still has daily headroom. Called at job
// creation; a job admitted before midnight finishes under the old day.
func (g *Governor) CheckQuota(ctx context.Context, userID int64) error {
	if g.quota == nil {
		return nil
	}
	usage, err := g.quota.GetUsage(ctx, time.Now().Format(quotaDayFormat), userID)
	if err != nil {
		logrus.WithError(err).Warn("Quota lookup failed, allowing job")
		return nil
	}
	if g.limits.DailyJobs > 0 && usage.Jobs >= g.limits.DailyJobs {
		return utils.ErrQuotaExceeded
	}
	if g.limits.DailyMB > 0 && usage.Bytes >= g.limits.DailyMB*1024*1024 {
		return utils.ErrQuotaExceeded
	}
	return nil
}

// RecordUsage charges a finished job against today's ledger.
func (g *Governor) RecordUsage(ctx context.Context, userID int64, bytes int64) {
	if g.quota == nil {
		return
	}
	if err := g.quota.AddUsage(ctx, time.Now().Format(quotaDayFormat), userID, 1, bytes); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to record quota usage")
	}
}

// Usage returns today's ledger entry for /quota.
func (g *Governor) Usage(ctx context.Context, userID int64) (jobs int, bytes int64) {
	if g.quota == nil {
		return 0, 0
	}
	usage, err := g.quota.GetUsage(ctx, time.Now().Format(quotaDayFormat), userID)
	if err != nil {
		return 0, 0
	}
	return usage.Jobs, usage.Bytes
}

// Limits exposes the configured daily caps for /quota rendering.
func (g *Governor) Limits() config.QuotaConfig {
	return g.limits
}
