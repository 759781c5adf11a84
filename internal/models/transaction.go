package models

import "time"

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// TransactionStatus represents the lifecycle status of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// RecurringInterval represents how often a recurring transaction repeats
type RecurringInterval string

const (
	RecurringDaily   RecurringInterval = "daily"
	RecurringWeekly  RecurringInterval = "weekly"
	RecurringMonthly RecurringInterval = "monthly"
	RecurringYearly  RecurringInterval = "yearly"
)

// Transaction represents a financial transaction in the system. Amount is an
// unsigned magnitude in cents; Type carries the direction.
//
// When IsRecurring is set the row doubles as a recurrence template:
// RecurringInterval must be present, LastProcessed records the last time the
// template spawned a concrete transaction, and NextRecurringDate (once
// computed) is always strictly after LastProcessed.
type Transaction struct {
	Base
	UserID      string            `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string            `gorm:"type:uuid;not null;index" json:"account_id"`
	Type        TransactionType   `gorm:"not null" json:"type"`
	Amount      int64             `gorm:"type:bigint;not null" json:"amount"`
	Description string            `json:"description"`
	Date        time.Time         `gorm:"not null" json:"date"`
	Category    string            `gorm:"not null;default:''" json:"category"`
	Status      TransactionStatus `gorm:"not null;default:'completed'" json:"status"`

	IsRecurring       bool               `gorm:"not null;default:false" json:"is_recurring"`
	RecurringInterval *RecurringInterval `json:"recurring_interval,omitempty"`
	LastProcessed     *time.Time         `json:"last_processed,omitempty"`
	NextRecurringDate *time.Time         `json:"next_recurring_date,omitempty"`

	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

// SignedAmount returns the amount with the direction applied: negative for
// expenses, positive for income.
func (t *Transaction) SignedAmount() int64 {
	if t.Type == TransactionTypeExpense {
		return -t.Amount
	}
	return t.Amount
}
