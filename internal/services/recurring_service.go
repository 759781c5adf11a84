package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fintra/internal/errors"
	"fintra/internal/logger"
	"fintra/internal/models"
)

// recurringService materializes recurring transaction templates into concrete
// transactions when they come due.
type recurringService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, accountService AccountServicer) RecurringServicer {
	return &recurringService{
		db:             db,
		accountService: accountService,
	}
}

// NextOccurrence returns the next due date after from for the given interval.
// Monthly and yearly steps clamp the day of month, so a Jan 31 template is
// next due Feb 28 (or Feb 29 in leap years) rather than spilling into March.
func NextOccurrence(from time.Time, interval models.RecurringInterval) time.Time {
	switch interval {
	case models.RecurringDaily:
		return from.AddDate(0, 0, 1)
	case models.RecurringWeekly:
		return from.AddDate(0, 0, 7)
	case models.RecurringMonthly:
		return addMonthsClamped(from, 1)
	case models.RecurringYearly:
		return addMonthsClamped(from, 12)
	}
	return from.AddDate(0, 0, 1)
}

// addMonthsClamped advances by whole months, clamping the day to the last
// day of the target month instead of normalizing past it.
func addMonthsClamped(from time.Time, months int) time.Time {
	firstOfTarget := time.Date(from.Year(), from.Month()+time.Month(months), 1,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())

	day := from.Day()
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

// IsDue reports whether a recurring transaction should be materialized at now.
// A template that has never been processed is due immediately; otherwise the
// next-due date decides.
func IsDue(t *models.Transaction, now time.Time) bool {
	if !t.IsRecurring {
		return false
	}
	if t.LastProcessed == nil {
		return true
	}
	if t.NextRecurringDate == nil {
		return false
	}
	return !t.NextRecurringDate.After(now)
}

// DueTransactions returns all recurring templates due for processing at now.
func (s *recurringService) DueTransactions(now time.Time) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.db.
		Where("is_recurring = ? AND status = ?", true, models.TransactionStatusCompleted).
		Where("last_processed IS NULL OR next_recurring_date <= ?", now).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// ApplyRecurrence materializes one due recurring template: it records a copy
// of the template as a fresh completed transaction, applies the amount to the
// account balance and advances the template's schedule, all in one database
// transaction. Templates that are gone or no longer due are skipped quietly,
// which makes redelivered work items safe to process again.
func (s *recurringService) ApplyRecurrence(ctx context.Context, transactionID, userID string) error {
	log := logger.Get()

	var template models.Transaction
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debugw("recurring template not found, skipping",
				"transaction_id", transactionID, "user_id", userID)
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	if !IsDue(&template, now) {
		log.Debugw("recurring template not due, skipping",
			"transaction_id", transactionID, "next_recurring_date", template.NextRecurringDate)
		return nil
	}
	if template.RecurringInterval == nil {
		log.Warnw("recurring template has no interval, skipping",
			"transaction_id", transactionID)
		return nil
	}

	account, err := s.accountService.GetAccountByID(userID, template.AccountID)
	if err != nil {
		return err
	}

	next := NextOccurrence(now, *template.RecurringInterval)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		occurrence := &models.Transaction{
			UserID:      template.UserID,
			AccountID:   template.AccountID,
			Type:        template.Type,
			Amount:      template.Amount,
			Description: template.Description + " (Recurring)",
			Date:        now,
			Category:    template.Category,
			Status:      models.TransactionStatusCompleted,
		}
		if err := tx.Create(occurrence).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := s.accountService.UpdateAccountBalance(tx, account, template.Type, template.Amount); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"last_processed":      now,
			"next_recurring_date": next,
		}
		if err := tx.Model(&template).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return nil
	})
}
