package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLoanAmountInvalid   = errors.New("loan amount must be positive")
	ErrLoanMonthsInvalid   = errors.New("loan term must be zero or more months")
	ErrLoanDateInvalid     = errors.New("loan origination date is not a valid shamsi date")
	ErrLoanMemberHasActive = errors.New("member already has an active loan")
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "active"
	LoanStatusSettled LoanStatus = "settled"
)

// Reminder stages. Advance stages are derived from the configured day
// offsets via AdvanceStage.
const (
	StageDue        = "due"
	StageDueFirstAt = "dueFirstAt"
)

// AdvanceStage names the advance-reminder stage for a day offset, e.g. "7d".
func AdvanceStage(days int) string {
	return fmt.Sprintf("%dd", days)
}

// ReminderSent records which reminder stages have been delivered, keyed by
// "m{monthNum}-{stage}". Values are true for advance stages, a 1/2 counter
// for the due-day stage and an RFC 3339 timestamp for dueFirstAt. The map
// only ever grows; keys are never cleared while the loan is active.
type ReminderSent map[string]any

func reminderKey(monthNum int, stage string) string {
	return fmt.Sprintf("m%d-%s", monthNum, stage)
}

// Flag reports whether the given stage has been marked for the month.
func (r ReminderSent) Flag(monthNum int, stage string) bool {
	if r == nil {
		return false
	}
	switch v := r[reminderKey(monthNum, stage)].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v != ""
	default:
		return false
	}
}

// DueCount returns the due-day send counter (0, 1 or 2) for the month.
// Values arrive as float64 after a JSONB round trip.
func (r ReminderSent) DueCount(monthNum int) int {
	if r == nil {
		return 0
	}
	switch v := r[reminderKey(monthNum, StageDue)].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// DueFirstAt returns the timestamp of the first due-day send for the month.
func (r ReminderSent) DueFirstAt(monthNum int) (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	s, ok := r[reminderKey(monthNum, StageDueFirstAt)].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Loan is a debt record. Date is the Shamsi origination date as YYYY-MM-DD;
// each installment falls due one month after the previous, starting one
// month after Date.
type Loan struct {
	ID           uuid.UUID       `json:"id"`
	MemberID     uuid.UUID       `json:"memberId"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"`
	DueMonths    int32           `json:"dueMonths"`
	Status       LoanStatus      `json:"status"`
	ReminderSent ReminderSent    `json:"reminderSent"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (l *Loan) Validate() error {
	if l.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrLoanAmountInvalid
	}
	if l.DueMonths < 0 {
		return ErrLoanMonthsInvalid
	}
	return nil
}

// WithReminderSent returns a copy of the loan with one reminder key set.
// The receiver is left untouched so callers control when the change is
// persisted.
func (l *Loan) WithReminderSent(monthNum int, stage string, value any) *Loan {
	updated := *l
	sent := make(ReminderSent, len(l.ReminderSent)+1)
	for k, v := range l.ReminderSent {
		sent[k] = v
	}
	sent[reminderKey(monthNum, stage)] = value
	updated.ReminderSent = sent
	return &updated
}

type LoanRepository interface {
	Create(loan *Loan) (*Loan, error)
	GetByID(id uuid.UUID) (*Loan, error)
	List() ([]*Loan, error)
	ListActive() ([]*Loan, error)
	Update(loan *Loan) (*Loan, error)
	// UpdateReminderSent persists only the reminder bookkeeping of a loan.
	UpdateReminderSent(id uuid.UUID, sent ReminderSent) error
	SetStatus(id uuid.UUID, status LoanStatus) error
	CountActiveByMember(memberID uuid.UUID) (int64, error)
}
