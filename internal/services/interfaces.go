package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fintra/internal/models"
	"fintra/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name string, accountType models.AccountType, initialBalance int64, isDefault bool) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	SetDefaultAccount(userID, accountID string) (*models.Account, error)
	UpdateAccountBalance(tx *gorm.DB, account *models.Account, transactionType models.TransactionType, amount int64) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	Category  *string
	MinAmount *int64
	MaxAmount *int64
}

// CreateTransactionInput carries the fields for recording a new transaction.
type CreateTransactionInput struct {
	AccountID         string
	Type              models.TransactionType
	Amount            int64
	Description       string
	Date              time.Time
	Category          string
	IsRecurring       bool
	RecurringInterval *models.RecurringInterval
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in CreateTransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	GetBudget(userID string) (*models.Budget, error)
	UpsertBudget(userID string, amount int64) (*models.Budget, error)
}

// MonthlyStats aggregates one user's transactions over one calendar month.
// Amounts are in cents; ByCategory sums expense magnitudes per category label.
type MonthlyStats struct {
	TotalIncome      int64            `json:"total_income"`
	TotalExpenses    int64            `json:"total_expenses"`
	ByCategory       map[string]int64 `json:"by_category"`
	TransactionCount int              `json:"transaction_count"`
}

// StatsServicer defines the contract for financial aggregation.
type StatsServicer interface {
	ComputeMonthlyStats(userID string, monthRef time.Time) (*MonthlyStats, error)
	AccountMonthlyExpenses(userID, accountID string, monthRef time.Time) (int64, error)
}

// RecurringServicer defines the contract for the recurrence engine.
type RecurringServicer interface {
	DueTransactions(now time.Time) ([]models.Transaction, error)
	ApplyRecurrence(ctx context.Context, transactionID, userID string) error
}

// AlertServicer evaluates budgets and dispatches budget-alert notifications.
type AlertServicer interface {
	CheckBudgetAlerts(ctx context.Context, now time.Time) error
}

// ReportServicer generates and dispatches monthly report notifications.
type ReportServicer interface {
	SendMonthlyReports(ctx context.Context, now time.Time) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
