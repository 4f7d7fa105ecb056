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

// ReceiptHandler handles receipt submission moderation HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ReceiptResponse represents a receipt submission in API responses
type ReceiptResponse struct {
	ID           string  `json:"id"`
	MemberID     string  `json:"memberId"`
	Amount       string  `json:"amount"`
	Date         string  `json:"date"`
	ImageKey     string  `json:"imageKey"`
	ThumbnailKey string  `json:"thumbnailKey"`
	Status       string  `json:"status"`
	Note         *string `json:"note,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

// ReceiptImageURLResponse represents the presigned image URL response
type ReceiptImageURLResponse struct {
	URL string `json:"url"`
}

// GetReceipts handles GET /api/v1/receipts
func (h *ReceiptHandler) GetReceipts(c echo.Context) error {
	var (
		receipts []*domain.ReceiptSubmission
		err      error
	)
	if c.QueryParam("status") == "pending" {
		receipts, err = h.receiptService.ListPending()
	} else {
		receipts, err = h.receiptService.List()
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to list receipts")
		return NewInternalError(c, "Failed to list receipts")
	}

	response := make([]ReceiptResponse, len(receipts))
	for i, receipt := range receipts {
		response[i] = toReceiptResponse(receipt)
	}

	return c.JSON(http.StatusOK, response)
}

// GetReceipt handles GET /api/v1/receipts/:id
func (h *ReceiptHandler) GetReceipt(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid receipt ID", nil)
	}

	receipt, err := h.receiptService.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Receipt not found")
		}
		log.Error().Err(err).Str("receipt_id", id.String()).Msg("Failed to get receipt")
		return NewInternalError(c, "Failed to get receipt")
	}

	return c.JSON(http.StatusOK, toReceiptResponse(receipt))
}

// GetReceiptImageURL handles GET /api/v1/receipts/:id/image-url
// Returns a short-lived presigned URL for the stored receipt photo.
func (h *ReceiptHandler) GetReceiptImageURL(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid receipt ID", nil)
	}

	receipt, err := h.receiptService.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Receipt not found")
		}
		log.Error().Err(err).Str("receipt_id", id.String()).Msg("Failed to get receipt")
		return NewInternalError(c, "Failed to get receipt")
	}

	key := receipt.ImageKey
	if c.QueryParam("variant") == "thumbnail" {
		key = receipt.ThumbnailKey
	}

	url, err := h.receiptService.ImageURL(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, service.ErrReceiptStorageUnavailable) {
			return NewInternalError(c, "Receipt storage not configured")
		}
		log.Error().Err(err).Str("receipt_id", id.String()).Msg("Failed to presign receipt image")
		return NewInternalError(c, "Failed to generate image URL")
	}

	return c.JSON(http.StatusOK, ReceiptImageURLResponse{URL: url})
}

// ApproveReceipt handles POST /api/v1/receipts/:id/approve
func (h *ReceiptHandler) ApproveReceipt(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid receipt ID", nil)
	}

	receipt, err := h.receiptService.Approve(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Receipt not found")
		}
		log.Error().Err(err).Str("receipt_id", id.String()).Msg("Failed to approve receipt")
		return NewInternalError(c, "Failed to approve receipt")
	}

	log.Info().Str("receipt_id", id.String()).Msg("Receipt approved")

	return c.JSON(http.StatusOK, toReceiptResponse(receipt))
}

// RejectReceipt handles POST /api/v1/receipts/:id/reject
func (h *ReceiptHandler) RejectReceipt(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid receipt ID", nil)
	}

	receipt, err := h.receiptService.Reject(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Receipt not found")
		}
		log.Error().Err(err).Str("receipt_id", id.String()).Msg("Failed to reject receipt")
		return NewInternalError(c, "Failed to reject receipt")
	}

	log.Info().Str("receipt_id", id.String()).Msg("Receipt rejected")

	return c.JSON(http.StatusOK, toReceiptResponse(receipt))
}

func toReceiptResponse(receipt *domain.ReceiptSubmission) ReceiptResponse {
	return ReceiptResponse{
		ID:           receipt.ID.String(),
		MemberID:     receipt.MemberID.String(),
		Amount:       receipt.Amount.StringFixed(0),
		Date:         receipt.Date,
		ImageKey:     receipt.ImageKey,
		ThumbnailKey: receipt.ThumbnailKey,
		Status:       string(receipt.Status),
		Note:         receipt.Note,
		CreatedAt:    receipt.CreatedAt.Format(time.RFC3339),
	}
}
