package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintra/internal/models"
	"fintra/internal/testutil"
)

func TestCheckBudgetAlerts(t *testing.T) {
	ctx := context.Background()

	t.Run("sends_alert_at_threshold", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		sender := &testutil.RecordingSender{}
		svc := NewAlertService(db, NewStatsService(db), sender)

		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestDefaultAccount(t, db, user, 100000)
		testutil.CreateTestBudget(t, db, user.ID, 100000)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionTypeExpense, 85000)

		testutil.AssertNoError(t, svc.CheckBudgetAlerts(ctx, time.Now()))

		sent := sender.Sent()
		if len(sent) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(sent))
		}
		if sent[0].To != user.Email {
			t.Errorf("expected alert to %s, got %s", user.Email, sent[0].To)
		}
		if sent[0].Subject != "Budget Alert" {
			t.Errorf("unexpected subject %q", sent[0].Subject)
		}

		var budget models.Budget
		testutil.AssertNoError(t, db.Where("user_id = ?", user.ID).First(&budget).Error)
		if budget.LastAlertSent == nil {
			t.Error("expected last_alert_sent to be stamped")
		}
	})

	t.Run("below_threshold_sends_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		sender := &testutil.RecordingSender{}
		svc := NewAlertService(db, NewStatsService(db), sender)

		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestDefaultAccount(t, db, user, 100000)
		testutil.CreateTestBudget(t, db, user.ID, 100000)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionTypeExpense, 79000)

		testutil.AssertNoError(t, svc.CheckBudgetAlerts(ctx, time.Now()))

		if len(sender.Sent()) != 0 {
			t.Errorf("expected no alerts, got %d", len(sender.Sent()))
		}
	})

	t.Run("suppresses_second_alert_in_same_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		sender := &testutil.RecordingSender{}
		svc := NewAlertService(db, NewStatsService(db), sender)

		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestDefaultAccount(t, db, user, 100000)
		testutil.CreateTestBudget(t, db, user.ID, 100000)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionTypeExpense, 90000)

		now := time.Now()
		testutil.AssertNoError(t, svc.CheckBudgetAlerts(ctx, now))
		testutil.AssertNoError(t, svc.CheckBudgetAlerts(ctx, now))

		if len(sender.Sent()) != 1 {
			t.Errorf("expected exactly 1 alert for the month, got %d", len(sender.Sent()))
		}
	})

	t.Run("alerts_again_in_new_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		sender := &testutil.RecordingSender{}
		svc := NewAlertService(db, NewStatsService(db), sender)

		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestDefaultAccount(t, db, user, 100000)
		budget := testutil.CreateTestBudget(t, db, user.ID, 100000)

		now := time.Now()
		lastMonth := now.AddDate(0, -1, 0)
		testutil.AssertNoError(t, db.Model(budget).Update("last_alert_sent", lastMonth).Error)

		tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionTypeExpense, 90000)
		testutil.AssertNoError(t, db.Model(tx).Update("date", now).Error)

		testutil.AssertNoError(t, svc.CheckBudgetAlerts(ctx, now))

		if len(sender.Sent()) != 1 {
			t.Errorf("expected a fresh alert this month, got %d", len(sender.Sent()))
		}
	})

	t.Run("skips_user_without_default_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		sender := &testutil.RecordingSender{}
		svc := NewAlertService(db, NewStatsService(db), sender)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestBudget(t, db, user.ID, 100000)

		testutil.AssertNoError(t, svc.CheckBudgetAlerts(ctx, time.Now()))

		if len(sender.Sent()) != 0 {
			t.Errorf("expected no alerts, got %d", len(sender.Sent()))
		}
	})

	t.Run("failed_send_leaves_stamp_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		sender := &testutil.RecordingSender{Err: errors.New("relay down")}
		svc := NewAlertService(db, NewStatsService(db), sender)

		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestDefaultAccount(t, db, user, 100000)
		testutil.CreateTestBudget(t, db, user.ID, 100000)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionTypeExpense, 90000)

		testutil.AssertNoError(t, svc.CheckBudgetAlerts(ctx, time.Now()))

		var budget models.Budget
		testutil.AssertNoError(t, db.Where("user_id = ?", user.ID).First(&budget).Error)
		if budget.LastAlertSent != nil {
			t.Error("expected last_alert_sent to stay unset after a failed send")
		}

		sender.Err = nil
		testutil.AssertNoError(t, svc.CheckBudgetAlerts(ctx, time.Now()))
		if len(sender.Sent()) != 1 {
			t.Errorf("expected retry to succeed, got %d sends", len(sender.Sent()))
		}
	})
}
