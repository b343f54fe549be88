package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradejournal/src/database"
	"tradejournal/src/model"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository() *GormUserRepository {
	logger.WithField("component", "GormUserRepository").
		Info("Creating new GormUserRepository with MainDB")

	return &GormUserRepository{
		db: database.MainDB,
	}
}

func (r *GormUserRepository) WithDB(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(
	ctx context.Context,
	user *model.User,
) error {

	return r.db.WithContext(ctx).Create(user).Error
}

func (r *GormUserRepository) Update(
	ctx context.Context,
	user *model.User,
) error {

	return r.db.WithContext(ctx).Save(user).Error
}

// FindByUserName fetches a user by its unique user name.
// Returns (nil, nil) if not found.
func (r *GormUserRepository) FindByUserName(
	ctx context.Context,
	userName string,
) (*model.User, error) {

	var u model.User
	err := r.db.WithContext(ctx).
		Where("user_name = ?", userName).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}

// FindByID fetches a user by its primary ID.
// Returns (nil, nil) if not found.
func (r *GormUserRepository) FindByID(
	ctx context.Context,
	id uint,
) (*model.User, error) {

	var u model.User
	err := r.db.WithContext(ctx).First(&u, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}
