package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrRequestAmountInvalid = errors.New("loan request amount must be positive")
	ErrRequestAlreadyOpen   = errors.New("member already has an open loan request")
)

// RequestStatus is the review state of a loan request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// LoanRequest is a member's request for a loan, usually submitted through
// the Telegram bot. TelegramChatID is captured at submission time so the
// decision can be delivered even before the member record is linked.
type LoanRequest struct {
	ID             uuid.UUID       `json:"id"`
	MemberID       uuid.UUID       `json:"memberId"`
	TelegramChatID string          `json:"telegramChatId"`
	Amount         decimal.Decimal `json:"amount"`
	DueMonths      int32           `json:"dueMonths"`
	Status         RequestStatus   `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func (r *LoanRequest) Validate() error {
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrRequestAmountInvalid
	}
	if r.DueMonths < 0 {
		return ErrLoanMonthsInvalid
	}
	return nil
}

type LoanRequestRepository interface {
	Create(request *LoanRequest) (*LoanRequest, error)
	GetByID(id uuid.UUID) (*LoanRequest, error)
	List() ([]*LoanRequest, error)
	SetStatus(id uuid.UUID, status RequestStatus) error
}
