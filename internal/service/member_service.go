package service

import (
	"strings"

	"github.com/google/uuid"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/shamsi"
	"github.com/sandoghapp/sandogh-backend/internal/websocket"
)

// MemberService handles member business logic
type MemberService struct {
	memberRepo     domain.MemberRepository
	loanRepo       domain.LoanRepository
	eventPublisher websocket.EventPublisher
}

// NewMemberService creates a new MemberService
func NewMemberService(memberRepo domain.MemberRepository, loanRepo domain.LoanRepository) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		loanRepo:   loanRepo,
	}
}

// SetEventPublisher sets the publisher for real-time admin-panel updates
func (s *MemberService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *MemberService) publish(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// CreateMemberInput contains input for creating a member
type CreateMemberInput struct {
	FullName       string
	Phone          string
	TelegramChatID string
}

// Create creates a new member
func (s *MemberService) Create(input CreateMemberInput) (*domain.Member, error) {
	member := &domain.Member{
		FullName:       strings.TrimSpace(input.FullName),
		Phone:          shamsi.ToASCIIDigits(strings.TrimSpace(input.Phone)),
		TelegramChatID: strings.TrimSpace(input.TelegramChatID),
	}
	if err := member.Validate(); err != nil {
		return nil, err
	}

	created, err := s.memberRepo.Create(member)
	if err != nil {
		return nil, err
	}
	s.publish(websocket.MemberUpdated(created))
	return created, nil
}

// Get retrieves a member by ID
func (s *MemberService) Get(id uuid.UUID) (*domain.Member, error) {
	return s.memberRepo.GetByID(id)
}

// GetByTelegramChatID retrieves a member by their linked Telegram chat
func (s *MemberService) GetByTelegramChatID(chatID string) (*domain.Member, error) {
	return s.memberRepo.GetByTelegramChatID(chatID)
}

// List returns all members
func (s *MemberService) List() ([]*domain.Member, error) {
	return s.memberRepo.List()
}

// UpdateMemberInput contains input for updating a member
type UpdateMemberInput struct {
	FullName       *string
	Phone          *string
	TelegramChatID *string
}

// Update applies partial changes to a member
func (s *MemberService) Update(id uuid.UUID, input UpdateMemberInput) (*domain.Member, error) {
	member, err := s.memberRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		member.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Phone != nil {
		member.Phone = shamsi.ToASCIIDigits(strings.TrimSpace(*input.Phone))
	}
	if input.TelegramChatID != nil {
		member.TelegramChatID = strings.TrimSpace(*input.TelegramChatID)
	}
	if err := member.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.memberRepo.Update(member)
	if err != nil {
		return nil, err
	}
	s.publish(websocket.MemberUpdated(updated))
	return updated, nil
}

// LinkTelegram attaches a Telegram chat to the member matching a phone
// number. Digits are normalized so Persian keyboard input links too.
func (s *MemberService) LinkTelegram(phone, chatID string) (*domain.Member, error) {
	normalized := shamsi.ToASCIIDigits(strings.TrimSpace(phone))
	member, err := s.memberRepo.GetByPhone(normalized)
	if err != nil {
		return nil, err
	}
	if err := s.memberRepo.SetTelegramChatID(member.ID, chatID); err != nil {
		return nil, err
	}
	member.TelegramChatID = chatID
	s.publish(websocket.MemberUpdated(member))
	return member, nil
}

// Delete removes a member. Members with an active loan cannot be deleted.
func (s *MemberService) Delete(id uuid.UUID) error {
	count, err := s.loanRepo.CountActiveByMember(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrLoanMemberHasActive
	}
	return s.memberRepo.Delete(id)
}
