package repository

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tradejournal/src/model"
)

// helper to create a new in memory gorm DB and migrate schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in memory db: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Strategy{},
		&model.StrategySection{},
		&model.StrategyRule{},
	); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}

	return db
}

func sampleStrategy(userID uint) *model.Strategy {
	return &model.Strategy{
		UserID:      userID,
		Title:       "Opening range breakout",
		Description: "Trade the break of the first 15 minutes",
		Status:      model.StrategyStatusActive,
		Sections: []model.StrategySection{
			{
				Title: "Before entry",
				Rules: []model.StrategyRule{
					{Text: "Range established"},
					{Text: "Volume confirms the break"},
				},
			},
			{
				Title: "Risk",
				Rules: []model.StrategyRule{
					{Text: "Stop placed beyond the range"},
				},
			},
		},
	}
}

func TestStrategyRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := (&StrategyRepository{}).WithDB(newTestDB(t))

	strategy := sampleStrategy(1)
	if err := repo.Create(ctx, strategy); err != nil {
		t.Fatalf("unexpected error creating strategy: %v", err)
	}

	if strategy.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", strategy.Version)
	}

	loaded, err := repo.FindByID(ctx, 1, strategy.ID)
	if err != nil {
		t.Fatalf("unexpected error fetching strategy: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected strategy to be found")
	}

	if len(loaded.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(loaded.Sections))
	}

	// Positions were normalized in tree order.
	if loaded.Sections[0].Title != "Before entry" || loaded.Sections[0].Position != 0 {
		t.Fatalf("unexpected first section: %+v", loaded.Sections[0])
	}
	if loaded.Sections[1].Position != 1 {
		t.Fatalf("expected second section at position 1, got %d", loaded.Sections[1].Position)
	}

	if loaded.RuleCount() != 3 {
		t.Fatalf("expected 3 rules, got %d", loaded.RuleCount())
	}
}

func TestStrategyRepositoryFindScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo := (&StrategyRepository{}).WithDB(newTestDB(t))

	strategy := sampleStrategy(1)
	if err := repo.Create(ctx, strategy); err != nil {
		t.Fatalf("unexpected error creating strategy: %v", err)
	}

	other, err := repo.FindByID(ctx, 2, strategy.ID)
	if err != nil {
		t.Fatalf("unexpected error fetching strategy: %v", err)
	}
	if other != nil {
		t.Fatal("expected another user's lookup to come back empty")
	}
}

func TestStrategyRepositoryUpdateReplacesTree(t *testing.T) {
	ctx := context.Background()
	repo := (&StrategyRepository{}).WithDB(newTestDB(t))

	strategy := sampleStrategy(1)
	if err := repo.Create(ctx, strategy); err != nil {
		t.Fatalf("unexpected error creating strategy: %v", err)
	}

	loaded, err := repo.FindByID(ctx, 1, strategy.ID)
	if err != nil || loaded == nil {
		t.Fatalf("failed to reload strategy: %v", err)
	}

	loaded.Title = "Opening range v2"
	loaded.Sections = []model.StrategySection{
		{
			Title: "Only section",
			Rules: []model.StrategyRule{
				{Text: "One rule to keep"},
			},
		},
	}

	if err := repo.Update(ctx, loaded); err != nil {
		t.Fatalf("unexpected error updating strategy: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, 1, strategy.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("failed to reload updated strategy: %v", err)
	}

	if reloaded.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", reloaded.Version)
	}
	if len(reloaded.Sections) != 1 || reloaded.RuleCount() != 1 {
		t.Fatalf("expected tree to be replaced, got %+v", reloaded.Sections)
	}

	// The old tree's rows are gone, not orphaned.
	var sectionCount int64
	if err := repo.db.Model(&model.StrategySection{}).Count(&sectionCount).Error; err != nil {
		t.Fatalf("failed to count sections: %v", err)
	}
	if sectionCount != 1 {
		t.Fatalf("expected 1 section row after update, got %d", sectionCount)
	}
}

func TestStrategyRepositoryDeleteCascades(t *testing.T) {
	ctx := context.Background()
	repo := (&StrategyRepository{}).WithDB(newTestDB(t))

	strategy := sampleStrategy(1)
	if err := repo.Create(ctx, strategy); err != nil {
		t.Fatalf("unexpected error creating strategy: %v", err)
	}

	if err := repo.Delete(ctx, 1, strategy.ID); err != nil {
		t.Fatalf("unexpected error deleting strategy: %v", err)
	}

	var ruleCount int64
	if err := repo.db.Model(&model.StrategyRule{}).Count(&ruleCount).Error; err != nil {
		t.Fatalf("failed to count rules: %v", err)
	}
	if ruleCount != 0 {
		t.Fatalf("expected rules to cascade on delete, got %d rows", ruleCount)
	}
}
