package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradejournal/src/database"
	"tradejournal/src/model"
)

// PriceRepository stores the daily close snapshots written by cmd/pricesync.
type PriceRepository struct {
	db *gorm.DB
}

func NewPriceRepository() *PriceRepository {
	return &PriceRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *PriceRepository) WithDB(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Upsert inserts a snapshot or replaces the close for an existing
// (symbol, date) pair.
func (r *PriceRepository) Upsert(
	ctx context.Context,
	snapshot *model.PriceSnapshot,
) error {

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"close"}),
		}).
		Create(snapshot).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "PriceRepository",
			"op":     "Upsert",
			"symbol": snapshot.Symbol,
		}).WithError(err).Error("Failed to upsert price snapshot")

		return err
	}

	return nil
}

// LatestBySymbol returns the most recent snapshot for a symbol.
// Returns (nil, nil) if no snapshot exists yet.
func (r *PriceRepository) LatestBySymbol(
	ctx context.Context,
	symbol string,
) (*model.PriceSnapshot, error) {

	var snapshot model.PriceSnapshot

	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("date DESC").
		First(&snapshot).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":   "PriceRepository",
			"op":     "LatestBySymbol",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch latest price snapshot")

		return nil, err
	}

	return &snapshot, nil
}

// OpenSymbols lists distinct symbols that currently have open trades, so the
// price sync job knows what to fetch.
func (r *PriceRepository) OpenSymbols(
	ctx context.Context,
) ([]string, error) {

	var symbols []string

	err := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Where("exit_time IS NULL").
		Distinct().
		Pluck("symbol", &symbols).Error

	if err != nil {
		logger.WithField("repo", "PriceRepository").
			WithError(err).Error("Failed to list open trade symbols")

		return nil, err
	}

	return symbols, nil
}
