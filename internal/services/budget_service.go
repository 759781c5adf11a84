package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "fintra/internal/errors"
	"fintra/internal/models"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// GetBudget retrieves the user's budget.
func (s *budgetService) GetBudget(userID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("user_id = ?", userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpsertBudget creates the user's budget or updates its amount. Each user has
// at most one budget row.
func (s *budgetService) UpsertBudget(userID string, amount int64) (*models.Budget, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must be greater than zero")
	}

	budget, err := s.GetBudget(userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrBudgetNotFound) {
			return nil, err
		}
		budget = &models.Budget{
			UserID: userID,
			Amount: amount,
		}
		if err := s.db.Create(budget).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return budget, nil
	}

	if err := s.db.Model(budget).Update("amount", amount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.Amount = amount
	return budget, nil
}
