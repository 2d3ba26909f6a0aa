package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-fetch-bot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *SQLiteDatabase) SetCookie(ctx context.Context, userID int64, domain, value string) error {
	cookie := models.Cookie{
		UserID: userID,
		Domain: strings.ToLower(domain),
		Value:  strings.TrimSpace(value),
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&cookie)
	if result.Error != nil {
		return fmt.Errorf("failed to save cookie for %s: %w", domain, result.Error)
	}
	return nil
}

func (s *SQLiteDatabase) GetCookie(ctx context.Context, userID int64, domain string) (string, error) {
	var cookie models.Cookie
	result := s.db.WithContext(ctx).
		First(&cookie, "user_id = ? AND domain = ?", userID, strings.ToLower(domain))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get cookie for %s: %w", domain, result.Error)
	}
	return cookie.Value, nil
}

func (s *SQLiteDatabase) DeleteCookies(ctx context.Context, userID int64) (int64, error) {
	result := s.db.WithContext(ctx).Delete(&models.Cookie{}, "user_id = ?", userID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete cookies: %w", result.Error)
	}
	return result.RowsAffected, nil
}
