package model

import "time"

// Exception is a persisted error capture used for post-mortem inspection of
// failures that would otherwise only live in the logs.
type Exception struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Service   string    `gorm:"size:100" json:"service"`
	Module    string    `gorm:"size:100" json:"module"`
	Method    string    `gorm:"size:100" json:"method"`
	Message   string    `gorm:"size:2048" json:"message"`
	Stack     string    `gorm:"type:text" json:"stack"`
	Level     string    `gorm:"size:20" json:"level"`
	Context   string    `gorm:"type:text" json:"context"`
	CreatedAt time.Time `json:"created_at"`
}

func (Exception) TableName() string {
	return "exceptions"
}
