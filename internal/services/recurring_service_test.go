package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"fintra/internal/models"
	"fintra/internal/testutil"
)

// depositingAccountService commits a deposit from outside the application
// transaction as soon as the account is read, so the balance the engine saw
// is stale by the time it writes.
type depositingAccountService struct {
	AccountServicer
	db      *gorm.DB
	deposit int64
}

func (d *depositingAccountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	account, err := d.AccountServicer.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}
	err = d.db.Model(&models.Account{}).Where("id = ?", accountID).
		Update("balance", gorm.Expr("balance + ?", d.deposit)).Error
	if err != nil {
		return nil, err
	}
	return account, nil
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name     string
		from     time.Time
		interval models.RecurringInterval
		want     time.Time
	}{
		{
			name:     "daily",
			from:     time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC),
			interval: models.RecurringDaily,
			want:     time.Date(2025, 3, 16, 9, 30, 0, 0, time.UTC),
		},
		{
			name:     "weekly",
			from:     time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC),
			interval: models.RecurringWeekly,
			want:     time.Date(2025, 3, 22, 9, 30, 0, 0, time.UTC),
		},
		{
			name:     "monthly_mid_month",
			from:     time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			interval: models.RecurringMonthly,
			want:     time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly_clamps_jan_31_to_feb_28",
			from:     time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			interval: models.RecurringMonthly,
			want:     time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly_clamps_to_feb_29_in_leap_year",
			from:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			interval: models.RecurringMonthly,
			want:     time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly_clamps_31_to_30",
			from:     time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			interval: models.RecurringMonthly,
			want:     time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly_december_rolls_into_january",
			from:     time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
			interval: models.RecurringMonthly,
			want:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "yearly",
			from:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			interval: models.RecurringYearly,
			want:     time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "yearly_clamps_leap_day",
			from:     time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			interval: models.RecurringYearly,
			want:     time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.from, tt.interval)
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%v, %s) = %v, want %v", tt.from, tt.interval, got, tt.want)
			}
		})
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("not_recurring", func(t *testing.T) {
		tx := &models.Transaction{IsRecurring: false}
		if IsDue(tx, now) {
			t.Error("non-recurring transaction should never be due")
		}
	})

	t.Run("never_processed_is_due", func(t *testing.T) {
		tx := &models.Transaction{IsRecurring: true}
		if !IsDue(tx, now) {
			t.Error("unprocessed template should be due")
		}
	})

	t.Run("due_date_passed", func(t *testing.T) {
		processed := now.AddDate(0, -1, 0)
		due := now.AddDate(0, 0, -1)
		tx := &models.Transaction{IsRecurring: true, LastProcessed: &processed, NextRecurringDate: &due}
		if !IsDue(tx, now) {
			t.Error("template past its due date should be due")
		}
	})

	t.Run("due_date_in_future", func(t *testing.T) {
		processed := now.AddDate(0, 0, -1)
		due := now.AddDate(0, 0, 5)
		tx := &models.Transaction{IsRecurring: true, LastProcessed: &processed, NextRecurringDate: &due}
		if IsDue(tx, now) {
			t.Error("template with a future due date should not be due")
		}
	})
}

func TestDueTransactions(t *testing.T) {
	t.Run("lists_due_and_unprocessed_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100000)

		now := time.Now()
		past := now.AddDate(0, 0, -2)
		future := now.AddDate(0, 0, 3)

		due := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, models.RecurringMonthly, &past)
		fresh := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, models.RecurringDaily, nil)
		testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, models.RecurringWeekly, &future)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionTypeExpense, 1000)

		got, err := svc.DueTransactions(now)
		testutil.AssertNoError(t, err)

		if len(got) != 2 {
			t.Fatalf("expected 2 due transactions, got %d", len(got))
		}
		ids := map[string]bool{got[0].ID: true, got[1].ID: true}
		if !ids[due.ID] || !ids[fresh.ID] {
			t.Errorf("expected due set {%s, %s}, got %v", due.ID, fresh.ID, ids)
		}
	})
}

func TestApplyRecurrence(t *testing.T) {
	ctx := context.Background()

	t.Run("materializes_due_template", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100000)

		past := time.Now().AddDate(0, 0, -1)
		template := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, models.RecurringMonthly, &past)

		err := svc.ApplyRecurrence(ctx, template.ID, user.ID)
		testutil.AssertNoError(t, err)

		var updatedAccount models.Account
		testutil.AssertNoError(t, db.First(&updatedAccount, "id = ?", account.ID).Error)
		if updatedAccount.Balance != 95000 {
			t.Errorf("expected balance 95000 after the 5000-cent expense, got %d", updatedAccount.Balance)
		}

		var spawned models.Transaction
		err = db.Where("user_id = ? AND is_recurring = ? AND id <> ?", user.ID, false, template.ID).
			Order("created_at DESC").First(&spawned).Error
		testutil.AssertNoError(t, err)
		if spawned.Amount != template.Amount {
			t.Errorf("expected spawned amount %d, got %d", template.Amount, spawned.Amount)
		}
		if spawned.Description != template.Description+" (Recurring)" {
			t.Errorf("unexpected spawned description %q", spawned.Description)
		}

		var updatedTemplate models.Transaction
		testutil.AssertNoError(t, db.First(&updatedTemplate, "id = ?", template.ID).Error)
		if updatedTemplate.LastProcessed == nil {
			t.Fatal("expected last_processed to be stamped")
		}
		if updatedTemplate.NextRecurringDate == nil || !updatedTemplate.NextRecurringDate.After(time.Now()) {
			t.Error("expected next_recurring_date to move into the future")
		}
	})

	t.Run("second_apply_is_a_no_op", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100000)

		past := time.Now().AddDate(0, 0, -1)
		template := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, models.RecurringMonthly, &past)

		testutil.AssertNoError(t, svc.ApplyRecurrence(ctx, template.ID, user.ID))
		testutil.AssertNoError(t, svc.ApplyRecurrence(ctx, template.ID, user.ID))

		var updatedAccount models.Account
		testutil.AssertNoError(t, db.First(&updatedAccount, "id = ?", account.ID).Error)
		if updatedAccount.Balance != 95000 {
			t.Errorf("expected balance deducted exactly once, got %d", updatedAccount.Balance)
		}

		var count int64
		db.Model(&models.Transaction{}).Where("user_id = ? AND is_recurring = ?", user.ID, false).Count(&count)
		if count != 1 {
			t.Errorf("expected exactly 1 spawned transaction, got %d", count)
		}
	})

	t.Run("concurrent_deposit_survives_application", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accounts := &depositingAccountService{
			AccountServicer: NewAccountService(db),
			db:              db,
			deposit:         100000,
		}
		svc := NewRecurringService(db, accounts)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100000)

		past := time.Now().AddDate(0, 0, -1)
		template := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, models.RecurringMonthly, &past)

		testutil.AssertNoError(t, svc.ApplyRecurrence(ctx, template.ID, user.ID))

		var updatedAccount models.Account
		testutil.AssertNoError(t, db.First(&updatedAccount, "id = ?", account.ID).Error)
		if updatedAccount.Balance != 195000 {
			t.Errorf("expected balance 195000, got %d", updatedAccount.Balance)
		}
	})

	t.Run("missing_template_is_skipped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)

		err := svc.ApplyRecurrence(ctx, "00000000-0000-7000-8000-000000000000", user.ID)
		testutil.AssertNoError(t, err)
	})

	t.Run("wrong_user_is_skipped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, owner.ID, 100000)

		past := time.Now().AddDate(0, 0, -1)
		template := testutil.CreateTestRecurringTransaction(t, db, owner.ID, account.ID, models.RecurringMonthly, &past)

		testutil.AssertNoError(t, svc.ApplyRecurrence(ctx, template.ID, other.ID))

		var updatedAccount models.Account
		testutil.AssertNoError(t, db.First(&updatedAccount, "id = ?", account.ID).Error)
		if updatedAccount.Balance != 100000 {
			t.Errorf("expected untouched balance, got %d", updatedAccount.Balance)
		}
	})
}
