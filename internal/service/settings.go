package service

import (
	"context"
	"fmt"

	"messenger-backend/internal/apperrors"
	"messenger-backend/internal/database"
	"messenger-backend/internal/models"

	"github.com/google/uuid"
)

type SettingsService struct {
	db *database.Database
}

func NewSettingsService(db *database.Database) *SettingsService {
	return &SettingsService{db: db}
}

const settingsColumns = `user_id, theme, language, notification_sound, read_receipts_enabled,
	typing_indicators_enabled, online_status_visible, two_factor_enabled, updated_at`

func (s *SettingsService) Get(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	var settings models.UserSettings
	query := `SELECT ` + settingsColumns + ` FROM user_settings WHERE user_id = $1`
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&settings.UserID, &settings.Theme, &settings.Language, &settings.NotificationSound,
		&settings.ReadReceiptsEnabled, &settings.TypingIndicatorsEnabled,
		&settings.OnlineStatusVisible, &settings.TwoFactorEnabled, &settings.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("settings not found")
		}
		return nil, apperrors.Internal("failed to fetch settings", err)
	}
	return &settings, nil
}

func (s *SettingsService) Update(ctx context.Context, userID uuid.UUID, req *models.UpdateSettingsRequest) (*models.UserSettings, error) {
	if req.Theme != nil && !req.Theme.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid theme %q", *req.Theme))
	}

	query := `
		UPDATE user_settings
		SET theme = COALESCE($1, theme),
			language = COALESCE($2, language),
			notification_sound = COALESCE($3, notification_sound),
			read_receipts_enabled = COALESCE($4, read_receipts_enabled),
			typing_indicators_enabled = COALESCE($5, typing_indicators_enabled),
			online_status_visible = COALESCE($6, online_status_visible),
			two_factor_enabled = COALESCE($7, two_factor_enabled),
			updated_at = NOW()
		WHERE user_id = $8
		RETURNING ` + settingsColumns

	var settings models.UserSettings
	err := s.db.QueryRow(ctx, query,
		req.Theme, req.Language, req.NotificationSound, req.ReadReceiptsEnabled,
		req.TypingIndicatorsEnabled, req.OnlineStatusVisible, req.TwoFactorEnabled, userID,
	).Scan(
		&settings.UserID, &settings.Theme, &settings.Language, &settings.NotificationSound,
		&settings.ReadReceiptsEnabled, &settings.TypingIndicatorsEnabled,
		&settings.OnlineStatusVisible, &settings.TwoFactorEnabled, &settings.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("settings not found")
		}
		return nil, apperrors.Internal("failed to update settings", err)
	}
	return &settings, nil
}
