package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradejournal/src/database"
	"tradejournal/src/model"
)

// SessionRepository handles bearer-token sessions. It also implements
// auth.SessionResolver for the HTTP middleware.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository() *SessionRepository {
	logger.WithField("component", "SessionRepository").
		Info("Creating new SessionRepository with MainDB")

	return &SessionRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *SessionRepository) WithDB(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(
	ctx context.Context,
	session *model.Session,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":    "SessionRepository",
		"op":      "Create",
		"user_id": session.UserID,
	}).Debug("Creating new session")

	err := r.db.WithContext(ctx).Create(session).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SessionRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create session")

		return err
	}

	return nil
}

// ResolveToken returns the user owning a valid, unexpired access token.
// Unknown or expired tokens resolve to (nil, nil).
func (r *SessionRepository) ResolveToken(
	ctx context.Context,
	token string,
) (*model.User, error) {

	var session model.Session

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "SessionRepository",
			"op":   "ResolveToken",
		}).WithError(err).Error("Failed to resolve session token")

		return nil, err
	}

	return session.User, nil
}

// FindByRefreshToken fetches a session by its refresh token regardless of
// access-token expiry. Returns (nil, nil) if not found.
func (r *SessionRepository) FindByRefreshToken(
	ctx context.Context,
	refreshToken string,
) (*model.Session, error) {

	var session model.Session

	err := r.db.WithContext(ctx).
		Where("refresh_token = ?", refreshToken).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

// Rotate replaces the token pair of an existing session and extends its
// expiry. Both steps run in a single transaction.
func (r *SessionRepository) Rotate(
	ctx context.Context,
	sessionID uint,
	token, refreshToken string,
	expiresAt time.Time,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":       "SessionRepository",
		"op":         "Rotate",
		"session_id": sessionID,
	}).Debug("Rotating session tokens")

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&model.Session{}).
			Where("id = ?", sessionID).
			Updates(map[string]interface{}{
				"token":         token,
				"refresh_token": refreshToken,
				"expires_at":    expiresAt,
			}).Error
	})
}

// DeleteByToken removes the session owning the given access token. Deleting
// an unknown token is not an error, so logout stays idempotent.
func (r *SessionRepository) DeleteByToken(
	ctx context.Context,
	token string,
) error {

	return r.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.Session{}).Error
}

// DeleteExpired purges sessions whose access token expired before cutoff.
func (r *SessionRepository) DeleteExpired(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {

	result := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&model.Session{})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SessionRepository",
			"op":   "DeleteExpired",
		}).WithError(result.Error).Error("Failed to purge expired sessions")

		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// DeleteAllByUser revokes every session of one user, e.g. after a password
// reset.
func (r *SessionRepository) DeleteAllByUser(
	ctx context.Context,
	userID uint,
) (int64, error) {

	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.Session{})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "SessionRepository",
			"op":      "DeleteAllByUser",
			"user_id": userID,
		}).WithError(result.Error).Error("Failed to revoke user sessions")

		return 0, result.Error
	}

	return result.RowsAffected, nil
}
