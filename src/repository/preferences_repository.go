package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradejournal/src/database"
	"tradejournal/src/model"
)

type PreferencesRepository struct {
	db *gorm.DB
}

func NewPreferencesRepository() *PreferencesRepository {
	logger.WithField("component", "PreferencesRepository").
		Info("Creating new PreferencesRepository with MainDB")

	return &PreferencesRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *PreferencesRepository) WithDB(db *gorm.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// GetOrCreate returns the user's preferences, inserting the defaults on first
// access so callers always see a full record.
func (r *PreferencesRepository) GetOrCreate(
	ctx context.Context,
	userID uint,
) (*model.UserPreferences, error) {

	var prefs model.UserPreferences

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&prefs).Error

	if err == nil {
		return &prefs, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.WithFields(map[string]interface{}{
			"repo":    "PreferencesRepository",
			"op":      "GetOrCreate",
			"user_id": userID,
		}).WithError(err).Error("Failed to fetch user preferences")

		return nil, err
	}

	defaults := model.DefaultPreferences(userID)
	if err := r.db.WithContext(ctx).Create(defaults).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "PreferencesRepository",
			"op":      "GetOrCreate",
			"user_id": userID,
		}).WithError(err).Error("Failed to create default preferences")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "PreferencesRepository",
		"op":      "GetOrCreate",
		"user_id": userID,
	}).Info("Default preferences created")

	return defaults, nil
}

func (r *PreferencesRepository) Update(
	ctx context.Context,
	prefs *model.UserPreferences,
) error {

	err := r.db.WithContext(ctx).Save(prefs).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "PreferencesRepository",
			"op":      "Update",
			"user_id": prefs.UserID,
		}).WithError(err).Error("Failed to update user preferences")

		return err
	}

	return nil
}
