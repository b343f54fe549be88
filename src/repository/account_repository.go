package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradejournal/src/database"
	"tradejournal/src/model"
)

// AccountRepository handles read/write operations for trading accounts.
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new repository instance using the main
// read/write database.
func NewAccountRepository() *AccountRepository {
	logger.WithField("component", "AccountRepository").
		Info("Creating new AccountRepository with MainDB")

	return &AccountRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *AccountRepository) WithDB(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new trading account. When the account is flagged as
// default, every other account of the user is cleared first so the
// one-default-per-user invariant holds.
func (r *AccountRepository) Create(
	ctx context.Context,
	account *model.TradingAccount,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":    "AccountRepository",
		"op":      "Create",
		"user_id": account.UserID,
		"name":    account.Name,
	}).Debug("Creating new trading account")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if account.IsDefault {
			if err := clearDefaultAccount(tx, account.UserID); err != nil {
				return err
			}
		}
		return tx.Create(account).Error
	})

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AccountRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create trading account")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":       "AccountRepository",
		"op":         "Create",
		"account_id": account.ID,
	}).Info("Trading account created successfully")

	return nil
}

// FindByID fetches a single account owned by the given user.
// Returns (nil, nil) if the account is not found.
func (r *AccountRepository) FindByID(
	ctx context.Context,
	userID, id uint,
) (*model.TradingAccount, error) {

	var account model.TradingAccount

	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo": "AccountRepository",
				"op":   "FindByID",
				"id":   id,
			}).Info("Trading account not found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "AccountRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch trading account by ID")

		return nil, err
	}

	return &account, nil
}

// FindAllByUser returns every account of the user ordered from newest to
// oldest, with the derived trades_count populated in a second query.
func (r *AccountRepository) FindAllByUser(
	ctx context.Context,
	userID uint,
) ([]model.TradingAccount, error) {

	logger.WithFields(map[string]interface{}{
		"repo":    "AccountRepository",
		"op":      "FindAllByUser",
		"user_id": userID,
	}).Debug("Fetching trading accounts for user")

	var accounts []model.TradingAccount

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&accounts).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "AccountRepository",
			"op":      "FindAllByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed to fetch trading accounts")

		return nil, err
	}

	counts, err := r.tradeCountsByAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range accounts {
		accounts[i].TradesCount = counts[accounts[i].ID]
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "AccountRepository",
		"op":          "FindAllByUser",
		"user_id":     userID,
		"rows_return": len(accounts),
	}).Info("Trading accounts fetched")

	return accounts, nil
}

// Update persists the mutable fields of an account. A default flag set here
// goes through SetDefault instead so the invariant stays transactional.
func (r *AccountRepository) Update(
	ctx context.Context,
	account *model.TradingAccount,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":       "AccountRepository",
		"op":         "Update",
		"account_id": account.ID,
	}).Debug("Updating trading account")

	err := r.db.WithContext(ctx).Save(account).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "AccountRepository",
			"op":         "Update",
			"account_id": account.ID,
		}).WithError(err).Error("Failed to update trading account")

		return err
	}

	return nil
}

// Delete removes an account owned by the user. Returns gorm.ErrRecordNotFound
// when nothing matched so handlers can answer 404.
func (r *AccountRepository) Delete(
	ctx context.Context,
	userID, id uint,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":       "AccountRepository",
		"op":         "Delete",
		"account_id": id,
		"user_id":    userID,
	}).Debug("Deleting trading account")

	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.TradingAccount{})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "AccountRepository",
			"op":         "Delete",
			"account_id": id,
		}).WithError(result.Error).Error("Failed to delete trading account")

		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.WithFields(map[string]interface{}{
		"repo":       "AccountRepository",
		"op":         "Delete",
		"account_id": id,
	}).Info("Trading account deleted")

	return nil
}

// SetDefault flags one account as the user's default and clears the flag on
// every other account, inside a single transaction.
func (r *AccountRepository) SetDefault(
	ctx context.Context,
	userID, id uint,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":       "AccountRepository",
		"op":         "SetDefault",
		"account_id": id,
		"user_id":    userID,
	}).Info("Setting default trading account")

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account model.TradingAccount

		if err := tx.Where("id = ? AND user_id = ?", id, userID).
			First(&account).Error; err != nil {
			return err
		}

		if err := clearDefaultAccount(tx, userID); err != nil {
			return err
		}

		return tx.Model(&model.TradingAccount{}).
			Where("id = ?", id).
			Update("is_default", true).Error
	})
}

// ToggleStatus flips an account between active and inactive. Archived
// accounts are left untouched.
func (r *AccountRepository) ToggleStatus(
	ctx context.Context,
	userID, id uint,
) (*model.TradingAccount, error) {

	var account model.TradingAccount

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).
			First(&account).Error; err != nil {
			return err
		}

		switch account.Status {
		case model.AccountStatusActive:
			account.Status = model.AccountStatusInactive
		case model.AccountStatusInactive:
			account.Status = model.AccountStatusActive
		default:
			return nil
		}

		return tx.Model(&model.TradingAccount{}).
			Where("id = ?", id).
			Update("status", account.Status).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":       "AccountRepository",
			"op":         "ToggleStatus",
			"account_id": id,
		}).WithError(err).Error("Failed to toggle account status")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":       "AccountRepository",
		"op":         "ToggleStatus",
		"account_id": id,
		"status":     account.Status,
	}).Info("Account status toggled")

	return &account, nil
}

func (r *AccountRepository) tradeCountsByAccount(
	ctx context.Context,
	userID uint,
) (map[uint]int64, error) {

	type row struct {
		AccountID uint
		Total     int64
	}

	var rows []row

	err := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Select("account_id, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("account_id").
		Scan(&rows).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "AccountRepository",
			"op":      "tradeCountsByAccount",
			"user_id": userID,
		}).WithError(err).Error("Failed to count trades per account")

		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.AccountID] = r.Total
	}

	return counts, nil
}

func clearDefaultAccount(tx *gorm.DB, userID uint) error {
	return tx.Model(&model.TradingAccount{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
