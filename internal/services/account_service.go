package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fintra/internal/errors"
	"fintra/internal/models"
	"fintra/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new account for a user.
//
// Default-ness lives on users.default_account_id: a user's first account
// always becomes the default, and isDefault repoints the reference inside
// the same database transaction that creates the account, so exactly one
// account is default whenever the user has any.
func (s *accountService) CreateAccount(userID, name string, accountType models.AccountType, initialBalance int64, isDefault bool) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if initialBalance < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "initial balance must not be negative")
	}
	switch accountType {
	case models.AccountTypeCurrent, models.AccountTypeSavings:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported account type")
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	account := &models.Account{
		UserID:  userID,
		Name:    name,
		Type:    accountType,
		Balance: initialBalance,
	}

	makeDefault := isDefault || user.DefaultAccountID == nil

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if initialBalance > 0 {
			seed := &models.Transaction{
				UserID:      userID,
				AccountID:   account.ID,
				Type:        models.TransactionTypeIncome,
				Amount:      initialBalance,
				Description: "Initial balance",
				Date:        time.Now(),
				Status:      models.TransactionStatusCompleted,
			}
			if err := tx.Create(seed).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if makeDefault {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).
				Update("default_account_id", account.ID).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	account.IsDefault = makeDefault
	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.markDefault(userID, accounts); err != nil {
		return nil, err
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	accounts := []models.Account{account}
	if err := s.markDefault(userID, accounts); err != nil {
		return nil, err
	}

	return &accounts[0], nil
}

// SetDefaultAccount makes the given account the user's default.
func (s *accountService) SetDefaultAccount(userID, accountID string) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("default_account_id", account.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	account.IsDefault = true
	return account, nil
}

// UpdateAccountBalance updates the balance of an account based on transaction
// type: income adds the amount, expense subtracts it. Must be called inside
// the same database transaction that records the financial transaction. The
// write is relative (balance + delta), so a balance committed concurrently by
// another session is never overwritten with a stale snapshot.
func (s *accountService) UpdateAccountBalance(tx *gorm.DB, account *models.Account, transactionType models.TransactionType, amount int64) error {
	var delta int64
	switch transactionType {
	case models.TransactionTypeIncome:
		delta = amount
	case models.TransactionTypeExpense:
		delta = -amount
	default:
		return apperrors.ErrInvalidTransactionType
	}

	err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	account.Balance += delta
	return nil
}

// markDefault sets IsDefault on the accounts owned by the user whose ID
// matches the owner's default reference.
func (s *accountService) markDefault(userID string, accounts []models.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	var user models.User
	if err := s.db.Select("default_account_id").Where("id = ?", userID).First(&user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.DefaultAccountID == nil {
		return nil
	}

	for i := range accounts {
		accounts[i].IsDefault = accounts[i].ID == *user.DefaultAccountID
	}
	return nil
}
