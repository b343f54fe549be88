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

// TradeSearchOptions carries the server-side filters for the paginated trades
// list. Nil pointers mean "no filter".
type TradeSearchOptions struct {
	UserID      uint
	AccountID   *uint
	Symbol      *string
	TradeType   *string
	EntryAfter  *time.Time
	EntryBefore *time.Time
	Limit       int
	Offset      int
}

// TradeRepository handles read/write operations for journaled trades. The
// trades list is paginated in SQL rather than in memory because a journal can
// hold far more trades than accounts or transactions.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new repository instance using the main
// read/write database.
func NewTradeRepository() *TradeRepository {
	logger.WithField("component", "TradeRepository").
		Info("Creating new TradeRepository with MainDB")

	return &TradeRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create inserts a new trade. PnL fields are recomputed before the insert.
func (r *TradeRepository) Create(
	ctx context.Context,
	trade *model.Trade,
) error {

	trade.ComputePnL()

	logger.WithFields(map[string]interface{}{
		"repo":       "TradeRepository",
		"op":         "Create",
		"symbol":     trade.Symbol,
		"trade_type": trade.TradeType,
		"account_id": trade.AccountID,
	}).Debug("Creating new trade")

	err := r.db.WithContext(ctx).Create(trade).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create trade")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "Create",
		"trade_id": trade.ID,
	}).Info("Trade created successfully")

	return nil
}

// FindByID fetches a single trade owned by the given user.
// Returns (nil, nil) if the trade is not found.
func (r *TradeRepository) FindByID(
	ctx context.Context,
	userID, id uint,
) (*model.Trade, error) {

	var trade model.Trade

	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&trade).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo": "TradeRepository",
				"op":   "FindByID",
				"id":   id,
			}).Info("Trade not found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch trade by ID")

		return nil, err
	}

	return &trade, nil
}

// Search returns trades matching the options, newest entries first.
func (r *TradeRepository) Search(
	ctx context.Context,
	options TradeSearchOptions,
) ([]model.Trade, error) {

	logger.WithFields(map[string]interface{}{
		"repo":    "TradeRepository",
		"op":      "Search",
		"user_id": options.UserID,
		"limit":   options.Limit,
		"offset":  options.Offset,
	}).Debug("Searching trades")

	var trades []model.Trade

	query := r.searchQuery(ctx, options).
		Order("entry_time DESC, id DESC")

	if options.Limit > 0 {
		query = query.Limit(options.Limit).Offset(options.Offset)
	}

	if err := query.Find(&trades).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "TradeRepository",
			"op":      "Search",
			"user_id": options.UserID,
		}).WithError(err).Error("Failed to search trades")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "TradeRepository",
		"op":          "Search",
		"user_id":     options.UserID,
		"rows_return": len(trades),
	}).Info("Trades fetched")

	return trades, nil
}

// Count returns how many trades match the options, ignoring pagination.
// The handler uses it to report the authoritative total to clients.
func (r *TradeRepository) Count(
	ctx context.Context,
	options TradeSearchOptions,
) (int64, error) {

	var count int64

	err := r.searchQuery(ctx, options).
		Model(&model.Trade{}).
		Count(&count).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "TradeRepository",
			"op":      "Count",
			"user_id": options.UserID,
		}).WithError(err).Error("Failed to count trades")

		return 0, err
	}

	return count, nil
}

// Update persists a trade after recomputing its PnL fields.
func (r *TradeRepository) Update(
	ctx context.Context,
	trade *model.Trade,
) error {

	trade.ComputePnL()

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "Update",
		"trade_id": trade.ID,
	}).Debug("Updating trade")

	err := r.db.WithContext(ctx).Save(trade).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "Update",
			"trade_id": trade.ID,
		}).WithError(err).Error("Failed to update trade")

		return err
	}

	return nil
}

// Delete removes a trade owned by the user. Returns gorm.ErrRecordNotFound
// when nothing matched so handlers can answer 404.
func (r *TradeRepository) Delete(
	ctx context.Context,
	userID, id uint,
) error {

	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Trade{})

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "Delete",
			"trade_id": id,
		}).WithError(result.Error).Error("Failed to delete trade")

		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "Delete",
		"trade_id": id,
	}).Info("Trade deleted")

	return nil
}

// FindAllByAccount returns every trade of one account, oldest exits first.
// Analytics consumes this to build the realized equity curve.
func (r *TradeRepository) FindAllByAccount(
	ctx context.Context,
	userID, accountID uint,
) ([]model.Trade, error) {

	var trades []model.Trade

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Order("entry_time ASC, id ASC").
		Find(&trades).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "TradeRepository",
			"op":         "FindAllByAccount",
			"user_id":    userID,
			"account_id": accountID,
		}).WithError(err).Error("Failed to fetch trades for account")

		return nil, err
	}

	return trades, nil
}

func (r *TradeRepository) searchQuery(
	ctx context.Context,
	options TradeSearchOptions,
) *gorm.DB {

	query := r.db.WithContext(ctx).
		Where("user_id = ?", options.UserID)

	if options.AccountID != nil {
		query = query.Where("account_id = ?", *options.AccountID)
	}
	if options.Symbol != nil {
		query = query.Where("symbol = ?", *options.Symbol)
	}
	if options.TradeType != nil {
		query = query.Where("trade_type = ?", *options.TradeType)
	}
	if options.EntryAfter != nil {
		query = query.Where("entry_time >= ?", *options.EntryAfter)
	}
	if options.EntryBefore != nil {
		query = query.Where("entry_time <= ?", *options.EntryBefore)
	}

	return query
}
