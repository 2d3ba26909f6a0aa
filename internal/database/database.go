package database

import (
	"context"

	"telegram-fetch-bot/internal/models"

	"github.com/sirupsen/logrus"
)

// JobStore persists job records so an expired/missing job referenced from an
// old UI message can be serviced from durable state.
type JobStore interface {
	SaveJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	DeleteJob(ctx context.Context, id string) error
	CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int64, error)
}

// CookieStore is the keyed credential-blob store consumed by the extraction engine.
type CookieStore interface {
	SetCookie(ctx context.Context, userID int64, domain, value string) error
	// GetCookie returns "" without error when no cookie is stored.
	GetCookie(ctx context.Context, userID int64, domain string) (string, error)
	DeleteCookies(ctx context.Context, userID int64) (int64, error)
}

// QuotaStore is the daily per-user usage ledger.
type QuotaStore interface {
	AddUsage(ctx context.Context, day string, userID int64, jobs int, bytes int64) error
	GetUsage(ctx context.Context, day string, userID int64) (models.QuotaEntry, error)
}

type Database interface {
	JobStore
	CookieStore
	QuotaStore
}

func NewDatabase(dbPath string) (Database, error) {
	db := NewSQLiteDatabase()
	if err := db.Init(dbPath); err != nil {
		logrus.WithError(err).Error("Failed to initialize the database")
		return nil, err
	}
	return db, nil
}
