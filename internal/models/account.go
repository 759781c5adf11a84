package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeCurrent AccountType = "current"
	AccountTypeSavings AccountType = "savings"
)

// Account represents a financial account in the system. Balance is stored in
// cents and is only ever mutated inside the database transaction that records
// the financial transaction causing the change.
type Account struct {
	Base
	UserID   string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name     string      `gorm:"not null" json:"name"`
	Type     AccountType `gorm:"not null" json:"type"`
	Balance  int64       `gorm:"type:bigint;not null;default:0" json:"balance"`
	Currency string      `gorm:"not null;default:'INR'" json:"currency"`

	// IsDefault is derived from the owner's DefaultAccountID reference; it is
	// populated by the account service and never stored on this row.
	IsDefault bool `gorm:"-" json:"is_default"`

	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
