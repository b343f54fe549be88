package model

import "time"

// UserPreferences is a one-row-per-user settings record. Updates are partial
// merges; readers are notified through the events hub after a successful save.
type UserPreferences struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Language        string    `gorm:"size:10;not null;default:en" json:"language"`
	Timezone        string    `gorm:"size:64;not null;default:UTC" json:"timezone"`
	DateFormat      string    `gorm:"size:20;not null;default:YYYY-MM-DD" json:"date_format"`
	NumberFormat    string    `gorm:"size:20;not null;default:1,234.56" json:"number_format"`
	Theme           string    `gorm:"size:20;not null;default:dark" json:"theme"`
	FontSize        string    `gorm:"size:10;not null;default:medium" json:"font_size"`
	ItemsPerPage    int       `gorm:"not null;default:20" json:"items_per_page"`
	NotifyOnTrade   bool      `gorm:"not null;default:true" json:"notify_on_trade"`
	NotifyOnImport  bool      `gorm:"not null;default:false" json:"notify_on_import"`
	NotifyByEmail   bool      `gorm:"not null;default:false" json:"notify_by_email"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (UserPreferences) TableName() string {
	return "user_preferences"
}

// DefaultPreferences returns the settings a fresh user starts with.
func DefaultPreferences(userID uint) *UserPreferences {
	return &UserPreferences{
		UserID:        userID,
		Language:      "en",
		Timezone:      "UTC",
		DateFormat:    "YYYY-MM-DD",
		NumberFormat:  "1,234.56",
		Theme:         "dark",
		FontSize:      "medium",
		ItemsPerPage:  20,
		NotifyOnTrade: true,
	}
}

// UpdatePreferencesPayload carries a partial preferences update. Nil fields
// are left untouched.
type UpdatePreferencesPayload struct {
	Language       *string `json:"language,omitempty"`
	Timezone       *string `json:"timezone,omitempty"`
	DateFormat     *string `json:"date_format,omitempty"`
	NumberFormat   *string `json:"number_format,omitempty"`
	Theme          *string `json:"theme,omitempty"`
	FontSize       *string `json:"font_size,omitempty"`
	ItemsPerPage   *int    `json:"items_per_page,omitempty"`
	NotifyOnTrade  *bool   `json:"notify_on_trade,omitempty"`
	NotifyOnImport *bool   `json:"notify_on_import,omitempty"`
	NotifyByEmail  *bool   `json:"notify_by_email,omitempty"`
}
