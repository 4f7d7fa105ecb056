package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/service"
)

// LoanRequestHandler handles loan request moderation HTTP requests
type LoanRequestHandler struct {
	requestService *service.LoanRequestService
}

// NewLoanRequestHandler creates a new LoanRequestHandler
func NewLoanRequestHandler(requestService *service.LoanRequestService) *LoanRequestHandler {
	return &LoanRequestHandler{requestService: requestService}
}

// RejectLoanRequestBody represents the reject request body
type RejectLoanRequestBody struct {
	Reason string `json:"reason"`
}

// LoanRequestResponse represents a loan request in API responses
type LoanRequestResponse struct {
	ID             string `json:"id"`
	MemberID       string `json:"memberId"`
	TelegramChatID string `json:"telegramChatId"`
	Amount         string `json:"amount"`
	DueMonths      int32  `json:"dueMonths"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}

// GetLoanRequests handles GET /api/v1/loan-requests
func (h *LoanRequestHandler) GetLoanRequests(c echo.Context) error {
	requests, err := h.requestService.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list loan requests")
		return NewInternalError(c, "Failed to list loan requests")
	}

	response := make([]LoanRequestResponse, len(requests))
	for i, request := range requests {
		response[i] = toLoanRequestResponse(request)
	}

	return c.JSON(http.StatusOK, response)
}

// GetLoanRequest handles GET /api/v1/loan-requests/:id
func (h *LoanRequestHandler) GetLoanRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan request ID", nil)
	}

	request, err := h.requestService.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return NewNotFoundError(c, "Loan request not found")
		}
		log.Error().Err(err).Str("request_id", id.String()).Msg("Failed to get loan request")
		return NewInternalError(c, "Failed to get loan request")
	}

	return c.JSON(http.StatusOK, toLoanRequestResponse(request))
}

// ApproveLoanRequest handles POST /api/v1/loan-requests/:id/approve
func (h *LoanRequestHandler) ApproveLoanRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan request ID", nil)
	}

	request, err := h.requestService.Approve(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return NewNotFoundError(c, "Loan request not found")
		}
		log.Error().Err(err).Str("request_id", id.String()).Msg("Failed to approve loan request")
		return NewInternalError(c, "Failed to approve loan request")
	}

	log.Info().Str("request_id", id.String()).Msg("Loan request approved")

	return c.JSON(http.StatusOK, toLoanRequestResponse(request))
}

// RejectLoanRequest handles POST /api/v1/loan-requests/:id/reject
func (h *LoanRequestHandler) RejectLoanRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan request ID", nil)
	}

	var req RejectLoanRequestBody
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	request, err := h.requestService.Reject(c.Request().Context(), id, req.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return NewNotFoundError(c, "Loan request not found")
		}
		log.Error().Err(err).Str("request_id", id.String()).Msg("Failed to reject loan request")
		return NewInternalError(c, "Failed to reject loan request")
	}

	log.Info().Str("request_id", id.String()).Msg("Loan request rejected")

	return c.JSON(http.StatusOK, toLoanRequestResponse(request))
}

func toLoanRequestResponse(request *domain.LoanRequest) LoanRequestResponse {
	return LoanRequestResponse{
		ID:             request.ID.String(),
		MemberID:       request.MemberID.String(),
		TelegramChatID: request.TelegramChatID,
		Amount:         request.Amount.StringFixed(0),
		DueMonths:      request.DueMonths,
		Status:         string(request.Status),
		CreatedAt:      request.CreatedAt.Format(time.RFC3339),
	}
}
