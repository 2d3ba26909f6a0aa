package database

import (
	"context"
	"errors"
	"fmt"

	"telegram-fetch-bot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *SQLiteDatabase) SaveJob(ctx context.Context, job *models.Job) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(job)
	if result.Error != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, result.Error)
	}
	return nil
}

func (s *SQLiteDatabase) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	result := s.db.WithContext(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, result.Error)
	}
	return &job, nil
}

func (s *SQLiteDatabase) DeleteJob(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Job{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, result.Error)
	}
	return nil
}

func (s *SQLiteDatabase) CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int64, error) {
	type row struct {
		Status models.JobStatus
		Count  int64
	}
	var rows []row
	result := s.db.WithContext(ctx).Model(&models.Job{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", result.Error)
	}

	counts := make(map[models.JobStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
