package models

import (
	"time"

	"github.com/google/uuid"
)

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	}
	return false
}

// UserSettings is a one-to-one preference record created alongside the user.
type UserSettings struct {
	UserID                  uuid.UUID `json:"user_id" db:"user_id"`
	Theme                   Theme     `json:"theme" db:"theme"`
	Language                string    `json:"language" db:"language"`
	NotificationSound       bool      `json:"notification_sound" db:"notification_sound"`
	ReadReceiptsEnabled     bool      `json:"read_receipts_enabled" db:"read_receipts_enabled"`
	TypingIndicatorsEnabled bool      `json:"typing_indicators_enabled" db:"typing_indicators_enabled"`
	OnlineStatusVisible     bool      `json:"online_status_visible" db:"online_status_visible"`
	TwoFactorEnabled        bool      `json:"two_factor_enabled" db:"two_factor_enabled"`
	UpdatedAt               time.Time `json:"updated_at" db:"updated_at"`
}

type UpdateSettingsRequest struct {
	Theme                   *Theme  `json:"theme"`
	Language                *string `json:"language" binding:"omitempty,max=20"`
	NotificationSound       *bool   `json:"notification_sound"`
	ReadReceiptsEnabled     *bool   `json:"read_receipts_enabled"`
	TypingIndicatorsEnabled *bool   `json:"typing_indicators_enabled"`
	OnlineStatusVisible     *bool   `json:"online_status_visible"`
	TwoFactorEnabled        *bool   `json:"two_factor_enabled"`
}
