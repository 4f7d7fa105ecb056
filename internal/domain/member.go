package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMemberNameEmpty   = errors.New("member full name is required")
	ErrMemberNameTooLong = errors.New("member full name must be 200 characters or less")
	ErrMemberPhoneTaken  = errors.New("a member with this phone number already exists")
)

// Member is a fund member: depositor, borrower, or both. Balances are
// maintained by the payment workflow; the reminder engine only reads them.
type Member struct {
	ID             uuid.UUID       `json:"id"`
	FullName       string          `json:"fullName"`
	Phone          string          `json:"phone"`
	TelegramChatID string          `json:"telegramChatId"`
	DepositBalance decimal.Decimal `json:"depositBalance"`
	LoanBalance    decimal.Decimal `json:"loanBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (m *Member) Validate() error {
	if m.FullName == "" {
		return ErrMemberNameEmpty
	}
	if len(m.FullName) > 200 {
		return ErrMemberNameTooLong
	}
	return nil
}

// HasTelegram reports whether the member can receive bot messages.
func (m *Member) HasTelegram() bool {
	return m.TelegramChatID != ""
}

type MemberRepository interface {
	Create(member *Member) (*Member, error)
	GetByID(id uuid.UUID) (*Member, error)
	GetByPhone(phone string) (*Member, error)
	GetByTelegramChatID(chatID string) (*Member, error)
	List() ([]*Member, error)
	Update(member *Member) (*Member, error)
	SetTelegramChatID(id uuid.UUID, chatID string) error
	// AdjustBalances atomically applies signed deltas to the deposit and loan
	// balances and returns the updated member.
	AdjustBalances(id uuid.UUID, depositDelta, loanDelta decimal.Decimal) (*Member, error)
	Delete(id uuid.UUID) error
}
