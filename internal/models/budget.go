package models

import "time"

// Budget represents a user's monthly spending target in cents. Each user has
// at most one budget, evaluated against the expenses of their default account.
//
// LastAlertSent only ever moves forward in time, and at most one alert is
// sent per calendar month.
type Budget struct {
	Base
	UserID        string     `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Amount        int64      `gorm:"type:bigint;not null" json:"amount"`
	LastAlertSent *time.Time `json:"last_alert_sent,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
