package service

import (
	"context"

	"messenger-backend/internal/apperrors"
	"messenger-backend/internal/auth"
	"messenger-backend/internal/database"
	"messenger-backend/internal/models"

	"github.com/google/uuid"
)

type UserService struct {
	db *database.Database
}

func NewUserService(db *database.Database) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, username, email, display_name, first_name, last_name, bio, phone_number, profile_picture_url, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }, u *models.User) error {
	return row.Scan(
		&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.FirstName, &u.LastName,
		&u.Bio, &u.PhoneNumber, &u.ProfilePictureURL, &u.CreatedAt, &u.UpdatedAt,
	)
}

// Register creates the user and its settings row in one transaction.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var user models.User
	query := `
		INSERT INTO users (username, email, password_hash, display_name, phone_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	err = scanUser(tx.QueryRow(ctx, query, req.Username, req.Email, hash, req.DisplayName, req.PhoneNumber), &user)
	if err != nil {
		switch {
		case isUniqueViolationOn(err, "users_username_key"):
			return nil, apperrors.ErrUsernameTaken
		case isUniqueViolationOn(err, "users_email_key"):
			return nil, apperrors.ErrEmailTaken
		}
		return nil, apperrors.Internal("failed to create user", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO user_settings (user_id) VALUES ($1)`, user.ID); err != nil {
		return nil, apperrors.Internal("failed to create user settings", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Internal("failed to commit registration", err)
	}
	return &user, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE email = $1`

	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.DisplayName, &user.FirstName, &user.LastName,
		&user.Bio, &user.PhoneNumber, &user.ProfilePictureURL, &user.CreatedAt, &user.UpdatedAt,
		&user.PasswordHash,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Internal("failed to look up user", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := scanUser(s.db.QueryRow(ctx, query, id), &user); err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Internal("failed to fetch user", err)
	}
	return &user, nil
}

// UpdateProfile applies a partial update; nil request fields keep their
// stored values.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	query := `
		UPDATE users
		SET first_name = COALESCE($1, first_name),
			last_name = COALESCE($2, last_name),
			bio = COALESCE($3, bio),
			username = COALESCE($4, username),
			email = COALESCE($5, email),
			phone_number = COALESCE($6, phone_number),
			display_name = COALESCE($7, display_name),
			updated_at = NOW()
		WHERE id = $8
		RETURNING ` + userColumns

	var user models.User
	err := scanUser(s.db.QueryRow(ctx, query,
		req.FirstName, req.LastName, req.Bio, req.Username, req.Email, req.PhoneNumber, req.DisplayName, id,
	), &user)
	if err != nil {
		switch {
		case isNoRows(err):
			return nil, apperrors.ErrUserNotFound
		case isUniqueViolationOn(err, "users_username_key"):
			return nil, apperrors.ErrUsernameTaken
		case isUniqueViolationOn(err, "users_email_key"):
			return nil, apperrors.ErrEmailTaken
		}
		return nil, apperrors.Internal("failed to update profile", err)
	}
	return &user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	var currentHash string
	err := s.db.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, id).Scan(&currentHash)
	if err != nil {
		if isNoRows(err) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Internal("failed to look up user", err)
	}

	if !auth.CheckPassword(oldPassword, currentHash) {
		return apperrors.Unauthenticated("invalid old password")
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperrors.Internal("failed to hash new password", err)
	}

	if _, err := s.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, newHash, id); err != nil {
		return apperrors.Internal("failed to update password", err)
	}
	return nil
}
