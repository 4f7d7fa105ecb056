package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/shamsi"
	"github.com/sandoghapp/sandogh-backend/internal/websocket"
)

// LoanService handles loan business logic
type LoanService struct {
	loanRepo       domain.LoanRepository
	memberRepo     domain.MemberRepository
	eventPublisher websocket.EventPublisher
}

// NewLoanService creates a new LoanService
func NewLoanService(loanRepo domain.LoanRepository, memberRepo domain.MemberRepository) *LoanService {
	return &LoanService{
		loanRepo:   loanRepo,
		memberRepo: memberRepo,
	}
}

// SetEventPublisher sets the publisher for real-time admin-panel updates
func (s *LoanService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LoanService) publish(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// CreateLoanInput contains input for creating a loan
type CreateLoanInput struct {
	MemberID  uuid.UUID
	Amount    decimal.Decimal
	Date      string // Shamsi YYYY-MM-DD, Persian digits accepted
	DueMonths int32
	Notes     *string
}

// Create grants a loan to a member. A member may hold at most one active
// loan at a time; granting adds the amount to the member's loan balance.
func (s *LoanService) Create(input CreateLoanInput) (*domain.Loan, error) {
	date, ok := shamsi.Parse(input.Date)
	if !ok {
		return nil, domain.ErrLoanDateInvalid
	}

	loan := &domain.Loan{
		MemberID:     input.MemberID,
		Amount:       input.Amount,
		Date:         date.String(),
		DueMonths:    input.DueMonths,
		Status:       domain.LoanStatusActive,
		ReminderSent: domain.ReminderSent{},
		Notes:        input.Notes,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.memberRepo.GetByID(input.MemberID); err != nil {
		return nil, err
	}
	count, err := s.loanRepo.CountActiveByMember(input.MemberID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, domain.ErrLoanMemberHasActive
	}

	created, err := s.loanRepo.Create(loan)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.AdjustBalances(input.MemberID, decimal.Zero, input.Amount); err != nil {
		return nil, err
	}

	s.publish(websocket.LoanCreated(created))
	return created, nil
}

// Get retrieves a loan by ID
func (s *LoanService) Get(id uuid.UUID) (*domain.Loan, error) {
	return s.loanRepo.GetByID(id)
}

// List returns all loans
func (s *LoanService) List() ([]*domain.Loan, error) {
	return s.loanRepo.List()
}

// Schedule returns the derived installment schedule for a loan.
func (s *LoanService) Schedule(id uuid.UUID) ([]ScheduleEntry, error) {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	member, err := s.memberRepo.GetByID(loan.MemberID)
	if err != nil {
		return nil, err
	}
	return InstallmentSchedule(loan, member), nil
}

// UpdateLoanInput contains input for updating a loan
type UpdateLoanInput struct {
	Amount    *decimal.Decimal
	Date      *string
	DueMonths *int32
	Notes     *string
}

// Update applies partial changes to a loan. Reminder bookkeeping is left
// untouched; changing the date or term simply makes old keys unreachable.
func (s *LoanService) Update(id uuid.UUID, input UpdateLoanInput) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if input.Amount != nil {
		loan.Amount = *input.Amount
	}
	if input.Date != nil {
		date, ok := shamsi.Parse(*input.Date)
		if !ok {
			return nil, domain.ErrLoanDateInvalid
		}
		loan.Date = date.String()
	}
	if input.DueMonths != nil {
		loan.DueMonths = *input.DueMonths
	}
	if input.Notes != nil {
		loan.Notes = input.Notes
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.loanRepo.Update(loan)
	if err != nil {
		return nil, err
	}
	s.publish(websocket.LoanUpdated(updated))
	return updated, nil
}

// Settle marks a loan as settled, ending its reminder campaign.
func (s *LoanService) Settle(id uuid.UUID) error {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.loanRepo.SetStatus(loan.ID, domain.LoanStatusSettled); err != nil {
		return err
	}
	loan.Status = domain.LoanStatusSettled
	s.publish(websocket.LoanUpdated(loan))
	return nil
}
