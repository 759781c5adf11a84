package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintra/internal/errors"
	"fintra/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	statsService  services.StatsServicer
	userService   services.UserServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, statsService services.StatsServicer, userService services.UserServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		statsService:  statsService,
		userService:   userService,
		auditService:  auditService,
	}
}

// UpsertBudgetRequest represents the request payload for setting a budget
type UpsertBudgetRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// BudgetResponse represents the budget with current usage in the response
type BudgetResponse struct {
	ID             string     `json:"id"`
	Amount         int64      `json:"amount"`
	CurrentSpend   int64      `json:"current_spend"`
	PercentageUsed float64    `json:"percentage_used"`
	LastAlertSent  *time.Time `json:"last_alert_sent,omitempty"`
}

// GetBudget returns the user's budget with current-month spending on the
// default account.
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudget(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrBudgetNotFound) {
			c.JSON(http.StatusOK, gin.H{"budget": nil})
			return
		}
		respondWithError(c, err)
		return
	}

	var currentSpend int64
	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if user.DefaultAccountID != nil {
		currentSpend, err = h.statsService.AccountMonthlyExpenses(userID, *user.DefaultAccountID, time.Now())
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	var pct float64
	if budget.Amount > 0 {
		pct = float64(currentSpend) / float64(budget.Amount) * 100
	}

	c.JSON(http.StatusOK, gin.H{"budget": BudgetResponse{
		ID:             budget.ID,
		Amount:         budget.Amount,
		CurrentSpend:   currentSpend,
		PercentageUsed: pct,
		LastAlertSent:  budget.LastAlertSent,
	}})
}

// UpsertBudget creates or replaces the user's budget amount.
func (h *BudgetHandler) UpsertBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpsertBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpsertBudget(userID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPSERT_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}
