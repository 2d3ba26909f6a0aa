package registry

import (
	"context"
	"sync"
	"time"

	"telegram-fetch-bot/internal/database"
	"telegram-fetch-bot/internal/models"
	"telegram-fetch-bot/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Registry owns every Job record. All mutation goes through its methods so
// concurrent readers (UI callbacks) and writers (download workers) never share
// a bare Job pointer. Reads return snapshots.
//
// A JobStore may be attached for write-through persistence; persistence
// failures are logged and do not fail the in-memory operation.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[string]*models.Job
	store database.JobStore // may be nil
}

func New(store database.JobStore) *Registry {
	return &Registry{
		jobs:  make(map[string]*models.Job),
		store: store,
	}
}

func (r *Registry) Create(chatID, userID int64, url string) models.Job {
	job := &models.Job{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		UserID:    userID,
		URL:       url,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	r.persist(job)
	return *job
}

// Get returns a snapshot of the job. When the job is not in memory it is
// looked up in the persistent store (survives restarts) and re-cached.
func (r *Registry) Get(id string) (models.Job, bool) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	if ok {
		snapshot := *job
		r.mu.RUnlock()
		return snapshot, true
	}
	r.mu.RUnlock()

	if r.store == nil {
		return models.Job{}, false
	}
	stored, err := r.store.GetJob(context.Background(), id)
	if err != nil {
		logrus.WithError(err).WithField("job_id", id).Warn("Job lookup in store failed")
		return models.Job{}, false
	}
	if stored == nil {
		return models.Job{}, false
	}

	r.mu.Lock()
	r.jobs[id] = stored
	snapshot := *stored
	r.mu.Unlock()
	return snapshot, true
}

// SetStatus performs a checked state transition.
func (r *Registry) SetStatus(id string, next models.JobStatus) error {
	return r.mutate(id, func(job *models.Job) error {
		if !job.Status.CanTransitionTo(next) {
			return utils.WrapError(utils.ErrIllegalTransition, "illegal status transition", map[string]any{
				"job_id": id,
				"from":   job.Status,
				"to":     next,
			})
		}
		job.Status = next
		return nil
	})
}

func (r *Registry) SetFormat(id, token string) error {
	return r.mutate(id, func(job *models.Job) error {
		job.Format = token
		return nil
	})
}

func (r *Registry) SetForceGeneric(id string, force bool) error {
	return r.mutate(id, func(job *models.Job) error {
		job.ForceGeneric = force
		return nil
	})
}

func (r *Registry) SetMessageID(id string, messageID int) error {
	return r.mutate(id, func(job *models.Job) error {
		job.MessageID = messageID
		return nil
	})
}

// SetProbeInfo records what probing discovered, for fallback strategies.
func (r *Registry) SetProbeInfo(id, title, mediaID string, duration float64, hlsURL, mp4URL string, bestEffort bool) error {
	return r.mutate(id, func(job *models.Job) error {
		job.Title = title
		job.MediaID = mediaID
		job.Duration = duration
		job.SniffedHLS = hlsURL
		job.SniffedMP4 = mp4URL
		job.BestEffort = bestEffort
		return nil
	})
}

// SetFilePath records the confirmed on-disk output path.
func (r *Registry) SetFilePath(id, path string) error {
	return r.mutate(id, func(job *models.Job) error {
		job.FilePath = path
		return nil
	})
}

func (r *Registry) AppendLog(id, line string) {
	_ = r.mutate(id, func(job *models.Job) error {
		if job.Log != "" {
			job.Log += "\n"
		}
		job.Log += line
		return nil
	})
}

// Cancel raises the cooperative cancellation flag. The running worker observes
// it at the next progress callback or strategy boundary.
func (r *Registry) Cancel(id string) bool {
	err := r.mutate(id, func(job *models.Job) error {
		job.Cancelled = true
		return nil
	})
	return err == nil
}

func (r *Registry) IsCancelled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return ok && job.Cancelled
}

// ResetForRetry clears execution state so a recheck/force-generic action runs
// a fresh attempt. This is the only path that clears the cancellation flag.
func (r *Registry) ResetForRetry(id string) error {
	return r.mutate(id, func(job *models.Job) error {
		job.Status = models.StatusPending
		job.FilePath = ""
		job.Log = ""
		job.Cancelled = false
		return nil
	})
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.DeleteJob(context.Background(), id); err != nil {
			logrus.WithError(err).WithField("job_id", id).Warn("Failed to delete persisted job")
		}
	}
}

// Recover builds a fresh job from the URL still visible in a UI message when
// a callback references an id that no longer exists anywhere.
func (r *Registry) Recover(chatID, userID int64, url string) models.Job {
	logrus.WithFields(logrus.Fields{
		"chat_id": chatID,
		"url":     url,
	}).Info("Recovering job from message context")
	return r.Create(chatID, userID, url)
}

// SweepTerminal drops terminal jobs whose last update is older than maxAge.
// Delivered and cancelled jobs are removed on settlement; this catches the
// failed ones kept around for their remediation buttons.
func (r *Registry) SweepTerminal(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	var swept []string
	for id, job := range r.jobs {
		if job.Status.IsTerminal() && job.UpdatedAt.Before(cutoff) {
			delete(r.jobs, id)
			swept = append(swept, id)
		}
	}
	r.mu.Unlock()

	if r.store != nil {
		for _, id := range swept {
			if err := r.store.DeleteJob(context.Background(), id); err != nil {
				logrus.WithError(err).WithField("job_id", id).Warn("Failed to delete swept job")
			}
		}
	}
	return len(swept)
}

func (r *Registry) CountByStatus() map[models.JobStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.JobStatus]int)
	for _, job := range r.jobs {
		counts[job.Status]++
	}
	return counts
}

func (r *Registry) ActiveJobIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.jobs))
	for id, job := range r.jobs {
		if !job.Status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Registry) mutate(id string, fn func(*models.Job) error) error {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return utils.ErrJobNotFound
	}
	if err := fn(job); err != nil {
		r.mu.Unlock()
		return err
	}
	job.UpdatedAt = time.Now()
	snapshot := *job
	r.mu.Unlock()

	r.persist(&snapshot)
	return nil
}

func (r *Registry) persist(job *models.Job) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveJob(context.Background(), job); err != nil {
		logrus.WithError(err).WithField("job_id", job.ID).Warn("Failed to persist job")
	}
}
