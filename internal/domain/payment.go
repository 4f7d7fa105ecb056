package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentAmountInvalid = errors.New("payment amount must be positive")
	ErrPaymentKindInvalid   = errors.New("payment kind must be installment or deposit")
)

// PaymentKind distinguishes loan installment payments from deposit
// contributions.
type PaymentKind string

const (
	PaymentKindInstallment PaymentKind = "installment"
	PaymentKindDeposit     PaymentKind = "deposit"
)

// Payment is a recorded repayment or deposit. Date is the Shamsi date the
// payment was made, as entered by the admin or derived from the receipt.
type Payment struct {
	ID         uuid.UUID       `json:"id"`
	MemberID   uuid.UUID       `json:"memberId"`
	LoanID     *uuid.UUID      `json:"loanId,omitempty"`
	Kind       PaymentKind     `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date"`
	Note       *string         `json:"note,omitempty"`
	ReceiptKey *string         `json:"receiptKey,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (p *Payment) Validate() error {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrPaymentAmountInvalid
	}
	if p.Kind != PaymentKindInstallment && p.Kind != PaymentKindDeposit {
		return ErrPaymentKindInvalid
	}
	return nil
}

type PaymentRepository interface {
	Create(payment *Payment) (*Payment, error)
	GetByID(id uuid.UUID) (*Payment, error)
	List() ([]*Payment, error)
	ListByMember(memberID uuid.UUID) ([]*Payment, error)
}
