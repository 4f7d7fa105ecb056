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

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePaymentRequest represents the create payment request body
type CreatePaymentRequest struct {
	MemberID string  `json:"memberId"`
	LoanID   *string `json:"loanId,omitempty"`
	Kind     string  `json:"kind"`
	Amount   string  `json:"amount"`
	Date     string  `json:"date"`
	Note     *string `json:"note,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID         string  `json:"id"`
	MemberID   string  `json:"memberId"`
	LoanID     *string `json:"loanId,omitempty"`
	Kind       string  `json:"kind"`
	Amount     string  `json:"amount"`
	Date       string  `json:"date"`
	Note       *string `json:"note,omitempty"`
	ReceiptKey *string `json:"receiptKey,omitempty"`
	CreatedAt  string  `json:"createdAt"`
}

// CreatePayment handles POST /api/v1/payments
// Admin-entered payments go through the manual notification path.
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		return NewValidationError(c, "Invalid member ID", []ValidationError{
			{Field: "memberId", Message: "Must be a valid UUID"},
		})
	}

	var loanID *uuid.UUID
	if req.LoanID != nil && *req.LoanID != "" {
		parsed, err := uuid.Parse(*req.LoanID)
		if err != nil {
			return NewValidationError(c, "Invalid loan ID", []ValidationError{
				{Field: "loanId", Message: "Must be a valid UUID"},
			})
		}
		loanID = &parsed
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	payment, err := h.paymentService.Create(c.Request().Context(), service.CreatePaymentInput{
		MemberID: memberID,
		LoanID:   loanID,
		Kind:     domain.PaymentKind(req.Kind),
		Amount:   amount,
		Date:     req.Date,
		Note:     req.Note,
		Manual:   true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return NewNotFoundError(c, "Member not found")
		}
		if errors.Is(err, domain.ErrPaymentAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount must be positive"},
			})
		}
		if errors.Is(err, domain.ErrPaymentKindInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "kind", Message: "Must be 'installment' or 'deposit'"},
			})
		}
		log.Error().Err(err).Str("member_id", memberID.String()).Msg("Failed to create payment")
		return NewInternalError(c, "Failed to create payment")
	}

	log.Info().
		Str("payment_id", payment.ID.String()).
		Str("member_id", memberID.String()).
		Str("kind", string(payment.Kind)).
		Str("amount", payment.Amount.String()).
		Msg("Payment recorded")

	return c.JSON(http.StatusCreated, toPaymentResponse(payment))
}

// GetPayments handles GET /api/v1/payments
func (h *PaymentHandler) GetPayments(c echo.Context) error {
	payments, err := h.paymentService.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list payments")
		return NewInternalError(c, "Failed to list payments")
	}

	response := make([]PaymentResponse, len(payments))
	for i, payment := range payments {
		response[i] = toPaymentResponse(payment)
	}

	return c.JSON(http.StatusOK, response)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	payment, err := h.paymentService.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return NewNotFoundError(c, "Payment not found")
		}
		log.Error().Err(err).Str("payment_id", id.String()).Msg("Failed to get payment")
		return NewInternalError(c, "Failed to get payment")
	}

	return c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:         payment.ID.String(),
		MemberID:   payment.MemberID.String(),
		Kind:       string(payment.Kind),
		Amount:     payment.Amount.StringFixed(0),
		Date:       payment.Date,
		Note:       payment.Note,
		ReceiptKey: payment.ReceiptKey,
		CreatedAt:  payment.CreatedAt.Format(time.RFC3339),
	}
	if payment.LoanID != nil {
		loanID := payment.LoanID.String()
		resp.LoanID = &loanID
	}
	return resp
}
