package model

import "time"

const (
	StrategyStatusDraft    = "draft"
	StrategyStatusActive   = "active"
	StrategyStatusArchived = "archived"
)

// Strategy is a versioned, user-authored checklist of trading rules grouped
// into ordered sections. Version bumps on every update.
type Strategy struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:1024" json:"description"`
	Status      string    `gorm:"size:20;not null;default:draft" json:"status"`
	Version     uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Sections []StrategySection `gorm:"foreignKey:StrategyID" json:"sections,omitempty"`
	User     *User             `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Strategy) TableName() string {
	return "strategies"
}

type StrategySection struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	StrategyID uint   `gorm:"index;not null" json:"strategy_id"`
	Title      string `gorm:"size:255;not null" json:"title"`
	Position   int    `gorm:"not null;default:0" json:"position"`

	Rules []StrategyRule `gorm:"foreignKey:SectionID" json:"rules,omitempty"`
}

func (StrategySection) TableName() string {
	return "strategy_sections"
}

type StrategyRule struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	SectionID uint   `gorm:"index;not null" json:"section_id"`
	Text      string `gorm:"size:1024;not null" json:"text"`
	Position  int    `gorm:"not null;default:0" json:"position"`
}

func (StrategyRule) TableName() string {
	return "strategy_rules"
}

// RuleCount returns the total number of rules across all sections.
func (s *Strategy) RuleCount() int {
	total := 0
	for _, sec := range s.Sections {
		total += len(sec.Rules)
	}
	return total
}

func ValidStrategyStatus(s string) bool {
	switch s {
	case StrategyStatusDraft, StrategyStatusActive, StrategyStatusArchived:
		return true
	}
	return false
}
