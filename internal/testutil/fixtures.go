package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fintra/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a current account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, 0)
}

// CreateTestAccountWithBalance creates a current account with the given balance (in cents).
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     models.AccountTypeCurrent,
		Balance:  balance,
		Currency: "INR",
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestDefaultAccount creates an account and points the user's default
// reference at it.
func CreateTestDefaultAccount(t *testing.T, db *gorm.DB, user *models.User, balance int64) *models.Account {
	t.Helper()

	account := CreateTestAccountWithBalance(t, db, user.ID, balance)
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("default_account_id", account.ID).Error; err != nil {
		t.Fatalf("failed to set default account: %v", err)
	}
	user.DefaultAccountID = &account.ID
	return account
}

// CreateTestTransaction creates a completed transaction of the given type and amount (in cents).
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Type:      txType,
		Amount:    amount,
		Date:      time.Now(),
		Category:  "general",
		Status:    models.TransactionStatusCompleted,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRecurringTransaction creates a recurring expense template with the
// given interval and next-due date.
func CreateTestRecurringTransaction(t *testing.T, db *gorm.DB, userID, accountID string, interval models.RecurringInterval, nextDue *time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:            userID,
		AccountID:         accountID,
		Type:              models.TransactionTypeExpense,
		Amount:            5000, // $50.00
		Description:       fmt.Sprintf("Test Subscription %d", nextID()),
		Date:              time.Now(),
		Category:          "subscriptions",
		Status:            models.TransactionStatusCompleted,
		IsRecurring:       true,
		RecurringInterval: &interval,
		NextRecurringDate: nextDue,
	}
	if nextDue != nil {
		processed := nextDue.AddDate(0, 0, -1)
		tx.LastProcessed = &processed
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test recurring transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a budget with the given amount (in cents).
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, amount int64) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID: userID,
		Amount: amount,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
