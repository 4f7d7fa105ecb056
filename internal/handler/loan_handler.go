package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/service"
)

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	MemberID  string  `json:"memberId"`
	Amount    string  `json:"amount"`
	Date      string  `json:"date"`
	DueMonths int32   `json:"dueMonths"`
	Notes     *string `json:"notes,omitempty"`
}

// UpdateLoanRequest represents the update loan request body
type UpdateLoanRequest struct {
	Amount    *string `json:"amount,omitempty"`
	Date      *string `json:"date,omitempty"`
	DueMonths *int32  `json:"dueMonths,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID           string              `json:"id"`
	MemberID     string              `json:"memberId"`
	Amount       string              `json:"amount"`
	Date         string              `json:"date"`
	DueMonths    int32               `json:"dueMonths"`
	Status       string              `json:"status"`
	ReminderSent domain.ReminderSent `json:"reminderSent"`
	Notes        *string             `json:"notes,omitempty"`
	CreatedAt    string              `json:"createdAt"`
	UpdatedAt    string              `json:"updatedAt"`
}

// ScheduleEntryResponse represents one installment in the schedule endpoint
type ScheduleEntryResponse struct {
	MonthNum int    `json:"monthNum"`
	DueDate  string `json:"dueDate"`
	Paid     bool   `json:"paid"`
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		return NewValidationError(c, "Invalid member ID", []ValidationError{
			{Field: "memberId", Message: "Must be a valid UUID"},
		})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	loan, err := h.loanService.Create(service.CreateLoanInput{
		MemberID:  memberID,
		Amount:    amount,
		Date:      req.Date,
		DueMonths: req.DueMonths,
		Notes:     req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return NewNotFoundError(c, "Member not found")
		}
		if errors.Is(err, domain.ErrLoanAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount must be positive"},
			})
		}
		if errors.Is(err, domain.ErrLoanMonthsInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "dueMonths", Message: "Term must be zero or more months"},
			})
		}
		if errors.Is(err, domain.ErrLoanDateInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "date", Message: "Must be a valid Shamsi date in YYYY-MM-DD format"},
			})
		}
		if errors.Is(err, domain.ErrLoanMemberHasActive) {
			return NewConflictError(c, "Member already has an active loan")
		}
		log.Error().Err(err).Str("member_id", memberID.String()).Msg("Failed to create loan")
		return NewInternalError(c, "Failed to create loan")
	}

	log.Info().Str("loan_id", loan.ID.String()).Str("member_id", memberID.String()).Str("amount", loan.Amount.String()).Msg("Loan created")

	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// GetLoans handles GET /api/v1/loans
func (h *LoanHandler) GetLoans(c echo.Context) error {
	loans, err := h.loanService.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list loans")
		return NewInternalError(c, "Failed to list loans")
	}

	response := make([]LoanResponse, len(loans))
	for i, loan := range loans {
		response[i] = toLoanResponse(loan)
	}

	return c.JSON(http.StatusOK, response)
}

// GetLoan handles GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to get loan")
		return NewInternalError(c, "Failed to get loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// GetLoanSchedule handles GET /api/v1/loans/:id/schedule
func (h *LoanHandler) GetLoanSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	entries, err := h.loanService.Schedule(id)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrMemberNotFound) {
			return NewNotFoundError(c, "Member not found")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to build schedule")
		return NewInternalError(c, "Failed to build schedule")
	}

	response := make([]ScheduleEntryResponse, len(entries))
	for i, entry := range entries {
		response[i] = ScheduleEntryResponse{
			MonthNum: entry.MonthNum,
			DueDate:  entry.DueDate.String(),
			Paid:     entry.Paid,
		}
	}

	return c.JSON(http.StatusOK, response)
}

// UpdateLoan handles PUT /api/v1/loans/:id
func (h *LoanHandler) UpdateLoan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req UpdateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateLoanInput{
		Date:      req.Date,
		DueMonths: req.DueMonths,
		Notes:     req.Notes,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		input.Amount = &amount
	}

	loan, err := h.loanService.Update(id, input)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrLoanAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount must be positive"},
			})
		}
		if errors.Is(err, domain.ErrLoanMonthsInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "dueMonths", Message: "Term must be zero or more months"},
			})
		}
		if errors.Is(err, domain.ErrLoanDateInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "date", Message: "Must be a valid Shamsi date in YYYY-MM-DD format"},
			})
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to update loan")
		return NewInternalError(c, "Failed to update loan")
	}

	log.Info().Str("loan_id", loan.ID.String()).Msg("Loan updated")

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// SettleLoan handles POST /api/v1/loans/:id/settle
func (h *LoanHandler) SettleLoan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	if err := h.loanService.Settle(id); err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to settle loan")
		return NewInternalError(c, "Failed to settle loan")
	}

	log.Info().Str("loan_id", id.String()).Msg("Loan settled")
	return c.NoContent(http.StatusNoContent)
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	reminderSent := loan.ReminderSent
	if reminderSent == nil {
		reminderSent = domain.ReminderSent{}
	}
	return LoanResponse{
		ID:           loan.ID.String(),
		MemberID:     loan.MemberID.String(),
		Amount:       loan.Amount.StringFixed(0),
		Date:         loan.Date,
		DueMonths:    loan.DueMonths,
		Status:       string(loan.Status),
		ReminderSent: reminderSent,
		Notes:        loan.Notes,
		CreatedAt:    loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    loan.UpdatedAt.Format(time.RFC3339),
	}
}
