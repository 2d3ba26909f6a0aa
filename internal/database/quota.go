package database

import (
	"context"
	"errors"
	"fmt"

	"telegram-fetch-bot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *SQLiteDatabase) AddUsage(ctx context.Context, day string, userID int64, jobs int, bytes int64) error {
	entry := models.QuotaEntry{Day: day, UserID: userID, Jobs: jobs, Bytes: bytes}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"jobs":  gorm.Expr("jobs + ?", jobs),
			"bytes": gorm.Expr("bytes + ?", bytes),
		}),
	}).Create(&entry)
	if result.Error != nil {
		return fmt.Errorf("failed to record usage for user %d: %w", userID, result.Error)
	}
	return nil
}

func (s *SQLiteDatabase) GetUsage(ctx context.Context, day string, userID int64) (models.QuotaEntry, error) {
	var entry models.QuotaEntry
	result := s.db.WithContext(ctx).First(&entry, "day = ? AND user_id = ?", day, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return models.QuotaEntry{Day: day, UserID: userID}, nil
		}
		return models.QuotaEntry{}, fmt.Errorf("failed to get usage for user %d: %w", userID, result.Error)
	}
	return entry, nil
}
