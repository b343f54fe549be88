package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradejournal/src/database"
	"tradejournal/src/model"
)

// StrategyRepository handles strategies together with their ordered sections
// and rules. Updates replace the section tree wholesale and bump the version.
type StrategyRepository struct {
	db *gorm.DB
}

func NewStrategyRepository() *StrategyRepository {
	logger.WithField("component", "StrategyRepository").
		Info("Creating new StrategyRepository with MainDB")

	return &StrategyRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *StrategyRepository) WithDB(db *gorm.DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

// Create inserts a strategy with its full section tree. Positions are
// normalized to the order the sections and rules arrive in.
func (r *StrategyRepository) Create(
	ctx context.Context,
	strategy *model.Strategy,
) error {

	normalizePositions(strategy)
	strategy.Version = 1

	logger.WithFields(map[string]interface{}{
		"repo":    "StrategyRepository",
		"op":      "Create",
		"user_id": strategy.UserID,
		"title":   strategy.Title,
	}).Debug("Creating new strategy")

	err := r.db.WithContext(ctx).Create(strategy).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "StrategyRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create strategy")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "StrategyRepository",
		"op":          "Create",
		"strategy_id": strategy.ID,
	}).Info("Strategy created successfully")

	return nil
}

// FindByID fetches a strategy with sections and rules in position order.
// Returns (nil, nil) if not found.
func (r *StrategyRepository) FindByID(
	ctx context.Context,
	userID, id uint,
) (*model.Strategy, error) {

	var strategy model.Strategy

	err := r.db.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("strategy_sections.position ASC")
		}).
		Preload("Sections.Rules", func(db *gorm.DB) *gorm.DB {
			return db.Order("strategy_rules.position ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&strategy).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo": "StrategyRepository",
				"op":   "FindByID",
				"id":   id,
			}).Info("Strategy not found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "StrategyRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch strategy by ID")

		return nil, err
	}

	return &strategy, nil
}

// FindAllByUser returns the user's strategies without their section trees,
// newest first. The detail endpoint loads the tree.
func (r *StrategyRepository) FindAllByUser(
	ctx context.Context,
	userID uint,
) ([]model.Strategy, error) {

	var strategies []model.Strategy

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&strategies).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "StrategyRepository",
			"op":      "FindAllByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed to fetch strategies")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "StrategyRepository",
		"op":          "FindAllByUser",
		"user_id":     userID,
		"rows_return": len(strategies),
	}).Info("Strategies fetched")

	return strategies, nil
}

// Update replaces the strategy's scalar fields and its whole section tree in
// one transaction, bumping the version. The incoming tree becomes the new
// truth; old sections and rules are deleted.
func (r *StrategyRepository) Update(
	ctx context.Context,
	strategy *model.Strategy,
) error {

	normalizePositions(strategy)

	logger.WithFields(map[string]interface{}{
		"repo":        "StrategyRepository",
		"op":          "Update",
		"strategy_id": strategy.ID,
	}).Debug("Updating strategy")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Strategy

		if err := tx.Where("id = ? AND user_id = ?", strategy.ID, strategy.UserID).
			First(&current).Error; err != nil {
			return err
		}

		var sectionIDs []uint
		if err := tx.Model(&model.StrategySection{}).
			Where("strategy_id = ?", strategy.ID).
			Pluck("id", &sectionIDs).Error; err != nil {
			return err
		}

		if len(sectionIDs) > 0 {
			if err := tx.Where("section_id IN ?", sectionIDs).
				Delete(&model.StrategyRule{}).Error; err != nil {
				return err
			}
			if err := tx.Where("strategy_id = ?", strategy.ID).
				Delete(&model.StrategySection{}).Error; err != nil {
				return err
			}
		}

		strategy.Version = current.Version + 1

		for i := range strategy.Sections {
			strategy.Sections[i].ID = 0
			strategy.Sections[i].StrategyID = strategy.ID
			for j := range strategy.Sections[i].Rules {
				strategy.Sections[i].Rules[j].ID = 0
				strategy.Sections[i].Rules[j].SectionID = 0
			}
		}

		return tx.Session(&gorm.Session{FullSaveAssociations: true}).
			Save(strategy).Error
	})

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "StrategyRepository",
			"op":          "Update",
			"strategy_id": strategy.ID,
		}).WithError(err).Error("Failed to update strategy")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "StrategyRepository",
		"op":          "Update",
		"strategy_id": strategy.ID,
		"version":     strategy.Version,
	}).Info("Strategy updated")

	return nil
}

// Delete removes a strategy and its section tree. Returns
// gorm.ErrRecordNotFound when nothing matched.
func (r *StrategyRepository) Delete(
	ctx context.Context,
	userID, id uint,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var strategy model.Strategy

		if err := tx.Where("id = ? AND user_id = ?", id, userID).
			First(&strategy).Error; err != nil {
			return err
		}

		var sectionIDs []uint
		if err := tx.Model(&model.StrategySection{}).
			Where("strategy_id = ?", id).
			Pluck("id", &sectionIDs).Error; err != nil {
			return err
		}

		if len(sectionIDs) > 0 {
			if err := tx.Where("section_id IN ?", sectionIDs).
				Delete(&model.StrategyRule{}).Error; err != nil {
				return err
			}
			if err := tx.Where("strategy_id = ?", id).
				Delete(&model.StrategySection{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&model.Strategy{}, id).Error
	})
}

func normalizePositions(strategy *model.Strategy) {
	for i := range strategy.Sections {
		strategy.Sections[i].Position = i
		for j := range strategy.Sections[i].Rules {
			strategy.Sections[i].Rules[j].Position = j
		}
	}
}
