package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradejournal/src/database"
	"tradejournal/src/model"
)

// TransactionRepository handles deposits and withdrawals. The collection per
// user is small, so list endpoints load it whole and shape it in memory.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository() *TransactionRepository {
	logger.WithField("component", "TransactionRepository").
		Info("Creating new TransactionRepository with MainDB")

	return &TransactionRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *TransactionRepository) WithDB(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(
	ctx context.Context,
	txn *model.AccountTransaction,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":       "TransactionRepository",
		"op":         "Create",
		"account_id": txn.AccountID,
		"type":       txn.TransactionType,
	}).Debug("Creating account transaction")

	err := r.db.WithContext(ctx).Create(txn).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TransactionRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create account transaction")

		return err
	}

	return nil
}

// FindByID fetches a single transaction owned by the given user.
// Returns (nil, nil) if not found.
func (r *TransactionRepository) FindByID(
	ctx context.Context,
	userID, id uint,
) (*model.AccountTransaction, error) {

	var txn model.AccountTransaction

	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&txn).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "TransactionRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch account transaction")

		return nil, err
	}

	return &txn, nil
}

// FindAllByUser returns every transaction of the user, newest first.
func (r *TransactionRepository) FindAllByUser(
	ctx context.Context,
	userID uint,
) ([]model.AccountTransaction, error) {

	var txns []model.AccountTransaction

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("executed_at DESC, id DESC").
		Find(&txns).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "TransactionRepository",
			"op":      "FindAllByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed to fetch account transactions")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "TransactionRepository",
		"op":          "FindAllByUser",
		"user_id":     userID,
		"rows_return": len(txns),
	}).Info("Account transactions fetched")

	return txns, nil
}

// FindAllByAccount returns every transaction of one account ordered by
// execution time ascending, for equity-curve building.
func (r *TransactionRepository) FindAllByAccount(
	ctx context.Context,
	userID, accountID uint,
) ([]model.AccountTransaction, error) {

	var txns []model.AccountTransaction

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Order("executed_at ASC, id ASC").
		Find(&txns).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "TransactionRepository",
			"op":         "FindAllByAccount",
			"account_id": accountID,
		}).WithError(err).Error("Failed to fetch account transactions")

		return nil, err
	}

	return txns, nil
}

func (r *TransactionRepository) Update(
	ctx context.Context,
	txn *model.AccountTransaction,
) error {

	err := r.db.WithContext(ctx).Save(txn).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":           "TransactionRepository",
			"op":             "Update",
			"transaction_id": txn.ID,
		}).WithError(err).Error("Failed to update account transaction")

		return err
	}

	return nil
}

// Delete removes a transaction owned by the user. Returns
// gorm.ErrRecordNotFound when nothing matched so handlers can answer 404.
func (r *TransactionRepository) Delete(
	ctx context.Context,
	userID, id uint,
) error {

	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.AccountTransaction{})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":           "TransactionRepository",
			"op":             "Delete",
			"transaction_id": id,
		}).WithError(result.Error).Error("Failed to delete account transaction")

		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
