package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fintra/internal/insights"
	"fintra/internal/models"
	"fintra/internal/testutil"
)

func TestSendMonthlyReports(t *testing.T) {
	ctx := context.Background()

	t.Run("sends_report_for_previous_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		sender := &testutil.RecordingSender{}
		gen := &testutil.StaticTextGenerator{Response: `["tip one", "tip two", "tip three"]`}
		svc := NewReportService(db, NewStatsService(db), insights.NewGenerator(gen), sender)

		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
		lastMonth := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
		tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionTypeExpense, 25000)
		testutil.AssertNoError(t, db.Model(tx).Update("date", lastMonth).Error)

		testutil.AssertNoError(t, svc.SendMonthlyReports(ctx, now))

		sent := sender.Sent()
		if len(sent) != 1 {
			t.Fatalf("expected 1 report, got %d", len(sent))
		}
		if sent[0].Subject != "Your Monthly Financial Report - April" {
			t.Errorf("unexpected subject %q", sent[0].Subject)
		}
		if !strings.Contains(sent[0].Body, "tip one") {
			t.Errorf("expected insights in body, got %q", sent[0].Body)
		}
		if !strings.Contains(sent[0].Body, "₹250.00") {
			t.Errorf("expected formatted expenses in body, got %q", sent[0].Body)
		}
	})

	t.Run("falls_back_when_generation_fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		sender := &testutil.RecordingSender{}
		gen := &testutil.StaticTextGenerator{Err: errors.New("quota exceeded")}
		svc := NewReportService(db, NewStatsService(db), insights.NewGenerator(gen), sender)

		testutil.CreateTestUser(t, db)

		testutil.AssertNoError(t, svc.SendMonthlyReports(ctx, time.Now()))

		sent := sender.Sent()
		if len(sent) != 1 {
			t.Fatalf("expected 1 report, got %d", len(sent))
		}
		if !strings.Contains(sent[0].Body, insights.Fallback[0]) {
			t.Errorf("expected fallback insight in body, got %q", sent[0].Body)
		}
	})

	t.Run("one_failed_user_does_not_stop_the_run", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		gen := &testutil.StaticTextGenerator{Response: `["a", "b", "c"]`}

		userA := testutil.CreateTestUser(t, db)
		userB := testutil.CreateTestUser(t, db)

		sender := &selectiveSender{failFor: userA.Email, inner: &testutil.RecordingSender{}}
		svc := NewReportService(db, NewStatsService(db), insights.NewGenerator(gen), sender)

		testutil.AssertNoError(t, svc.SendMonthlyReports(ctx, time.Now()))

		sent := sender.inner.Sent()
		if len(sent) != 1 {
			t.Fatalf("expected 1 successful report, got %d", len(sent))
		}
		if sent[0].To != userB.Email {
			t.Errorf("expected report for %s, got %s", userB.Email, sent[0].To)
		}
	})

	t.Run("skips_inactive_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		sender := &testutil.RecordingSender{}
		gen := &testutil.StaticTextGenerator{Response: `["a", "b", "c"]`}
		svc := NewReportService(db, NewStatsService(db), insights.NewGenerator(gen), sender)

		user := testutil.CreateTestUser(t, db)
		testutil.AssertNoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

		testutil.AssertNoError(t, svc.SendMonthlyReports(ctx, time.Now()))

		if len(sender.Sent()) != 0 {
			t.Errorf("expected no reports for inactive users, got %d", len(sender.Sent()))
		}
	})
}

// selectiveSender fails delivery for one recipient and forwards the rest.
type selectiveSender struct {
	failFor string
	inner   *testutil.RecordingSender
}

func (s *selectiveSender) Send(to, subject, body string) error {
	if to == s.failFor {
		return errors.New("mailbox unavailable")
	}
	return s.inner.Send(to, subject, body)
}
