package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptSubmission is an uploaded payment receipt photo awaiting admin
// review. ImageKey and ThumbnailKey are object-storage keys, not URLs.
type ReceiptSubmission struct {
	ID           uuid.UUID       `json:"id"`
	MemberID     uuid.UUID       `json:"memberId"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"`
	ImageKey     string          `json:"imageKey"`
	ThumbnailKey string          `json:"thumbnailKey"`
	Status       RequestStatus   `json:"status"`
	Note         *string         `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type ReceiptSubmissionRepository interface {
	Create(submission *ReceiptSubmission) (*ReceiptSubmission, error)
	GetByID(id uuid.UUID) (*ReceiptSubmission, error)
	List() ([]*ReceiptSubmission, error)
	ListPending() ([]*ReceiptSubmission, error)
	SetStatus(id uuid.UUID, status RequestStatus) error
}
