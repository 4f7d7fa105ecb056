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

// MemberHandler handles member-related HTTP requests
type MemberHandler struct {
	memberService  *service.MemberService
	paymentService *service.PaymentService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(memberService *service.MemberService, paymentService *service.PaymentService) *MemberHandler {
	return &MemberHandler{memberService: memberService, paymentService: paymentService}
}

// CreateMemberRequest represents the create member request body
type CreateMemberRequest struct {
	FullName       string `json:"fullName"`
	Phone          string `json:"phone"`
	TelegramChatID string `json:"telegramChatId"`
}

// UpdateMemberRequest represents the update member request body
type UpdateMemberRequest struct {
	FullName       *string `json:"fullName,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	TelegramChatID *string `json:"telegramChatId,omitempty"`
}

// MemberResponse represents a member in API responses
type MemberResponse struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	Phone          string `json:"phone"`
	TelegramChatID string `json:"telegramChatId"`
	DepositBalance string `json:"depositBalance"`
	LoanBalance    string `json:"loanBalance"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

// CreateMember handles POST /api/v1/members
func (h *MemberHandler) CreateMember(c echo.Context) error {
	var req CreateMemberRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	member, err := h.memberService.Create(service.CreateMemberInput{
		FullName:       req.FullName,
		Phone:          req.Phone,
		TelegramChatID: req.TelegramChatID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMemberNameEmpty) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "fullName", Message: "Full name is required"},
			})
		}
		if errors.Is(err, domain.ErrMemberNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "fullName", Message: "Full name must be 200 characters or less"},
			})
		}
		if errors.Is(err, domain.ErrMemberPhoneTaken) {
			return NewConflictError(c, "A member with this phone number already exists")
		}
		log.Error().Err(err).Msg("Failed to create member")
		return NewInternalError(c, "Failed to create member")
	}

	log.Info().Str("member_id", member.ID.String()).Str("name", member.FullName).Msg("Member created")

	return c.JSON(http.StatusCreated, toMemberResponse(member))
}

// GetMembers handles GET /api/v1/members
func (h *MemberHandler) GetMembers(c echo.Context) error {
	members, err := h.memberService.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list members")
		return NewInternalError(c, "Failed to list members")
	}

	response := make([]MemberResponse, len(members))
	for i, member := range members {
		response[i] = toMemberResponse(member)
	}

	return c.JSON(http.StatusOK, response)
}

// GetMember handles GET /api/v1/members/:id
func (h *MemberHandler) GetMember(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	member, err := h.memberService.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return NewNotFoundError(c, "Member not found")
		}
		log.Error().Err(err).Str("member_id", id.String()).Msg("Failed to get member")
		return NewInternalError(c, "Failed to get member")
	}

	return c.JSON(http.StatusOK, toMemberResponse(member))
}

// UpdateMember handles PUT /api/v1/members/:id
func (h *MemberHandler) UpdateMember(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	var req UpdateMemberRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	member, err := h.memberService.Update(id, service.UpdateMemberInput{
		FullName:       req.FullName,
		Phone:          req.Phone,
		TelegramChatID: req.TelegramChatID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return NewNotFoundError(c, "Member not found")
		}
		if errors.Is(err, domain.ErrMemberNameEmpty) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "fullName", Message: "Full name is required"},
			})
		}
		if errors.Is(err, domain.ErrMemberPhoneTaken) {
			return NewConflictError(c, "A member with this phone number already exists")
		}
		log.Error().Err(err).Str("member_id", id.String()).Msg("Failed to update member")
		return NewInternalError(c, "Failed to update member")
	}

	log.Info().Str("member_id", member.ID.String()).Msg("Member updated")

	return c.JSON(http.StatusOK, toMemberResponse(member))
}

// DeleteMember handles DELETE /api/v1/members/:id
func (h *MemberHandler) DeleteMember(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	if err := h.memberService.Delete(id); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return NewNotFoundError(c, "Member not found")
		}
		if errors.Is(err, domain.ErrLoanMemberHasActive) {
			return NewConflictError(c, "Member has an active loan and cannot be deleted")
		}
		log.Error().Err(err).Str("member_id", id.String()).Msg("Failed to delete member")
		return NewInternalError(c, "Failed to delete member")
	}

	log.Info().Str("member_id", id.String()).Msg("Member deleted")
	return c.NoContent(http.StatusNoContent)
}

// GetMemberPayments handles GET /api/v1/members/:id/payments
func (h *MemberHandler) GetMemberPayments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	if _, err := h.memberService.Get(id); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return NewNotFoundError(c, "Member not found")
		}
		log.Error().Err(err).Str("member_id", id.String()).Msg("Failed to get member")
		return NewInternalError(c, "Failed to get member")
	}

	payments, err := h.paymentService.ListByMember(id)
	if err != nil {
		log.Error().Err(err).Str("member_id", id.String()).Msg("Failed to list member payments")
		return NewInternalError(c, "Failed to list payments")
	}

	response := make([]PaymentResponse, len(payments))
	for i, payment := range payments {
		response[i] = toPaymentResponse(payment)
	}

	return c.JSON(http.StatusOK, response)
}

func toMemberResponse(member *domain.Member) MemberResponse {
	return MemberResponse{
		ID:             member.ID.String(),
		FullName:       member.FullName,
		Phone:          member.Phone,
		TelegramChatID: member.TelegramChatID,
		DepositBalance: member.DepositBalance.StringFixed(0),
		LoanBalance:    member.LoanBalance.StringFixed(0),
		CreatedAt:      member.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      member.UpdatedAt.Format(time.RFC3339),
	}
}
