package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/shamsi"
	"github.com/sandoghapp/sandogh-backend/internal/util"
	"github.com/sandoghapp/sandogh-backend/internal/websocket"
)

// LoanRequestService handles the loan request workflow: submission through
// the bot, review notifications and the approve/reject decision.
type LoanRequestService struct {
	requestRepo    domain.LoanRequestRepository
	memberRepo     domain.MemberRepository
	settingsRepo   domain.SettingsRepository
	notifier       domain.Notifier
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
}

// NewLoanRequestService creates a new LoanRequestService
func NewLoanRequestService(
	requestRepo domain.LoanRequestRepository,
	memberRepo domain.MemberRepository,
	settingsRepo domain.SettingsRepository,
	notifier domain.Notifier,
	logger zerolog.Logger,
) *LoanRequestService {
	return &LoanRequestService{
		requestRepo:  requestRepo,
		memberRepo:   memberRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		logger:       logger.With().Str("component", "loan_request_service").Logger(),
	}
}

// SetEventPublisher sets the publisher for real-time admin-panel updates
func (s *LoanRequestService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LoanRequestService) publish(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// SubmitInput contains input for submitting a loan request
type SubmitInput struct {
	TelegramChatID string
	Amount         decimal.Decimal
	DueMonths      int32
}

// Submit files a loan request for the member linked to a Telegram chat.
// Members with an outstanding loan balance or an open request are refused.
func (s *LoanRequestService) Submit(ctx context.Context, input SubmitInput) (*domain.LoanRequest, error) {
	member, err := s.memberRepo.GetByTelegramChatID(input.TelegramChatID)
	if err != nil {
		return nil, err
	}
	if member.LoanBalance.GreaterThan(decimal.Zero) {
		return nil, domain.ErrLoanMemberHasActive
	}

	existing, err := s.requestRepo.List()
	if err != nil {
		return nil, err
	}
	for _, r := range existing {
		if r.MemberID == member.ID &&
			(r.Status == domain.RequestStatusPending || r.Status == domain.RequestStatusApproved) {
			return nil, domain.ErrRequestAlreadyOpen
		}
	}

	request := &domain.LoanRequest{
		MemberID:       member.ID,
		TelegramChatID: input.TelegramChatID,
		Amount:         input.Amount,
		DueMonths:      input.DueMonths,
		Status:         domain.RequestStatusPending,
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	created, err := s.requestRepo.Create(request)
	if err != nil {
		return nil, err
	}

	s.notifySubmission(ctx, member, created)
	s.publish(websocket.LoanRequestSubmitted(created))
	return created, nil
}

// List returns all loan requests
func (s *LoanRequestService) List() ([]*domain.LoanRequest, error) {
	return s.requestRepo.List()
}

// Get retrieves a loan request by ID
func (s *LoanRequestService) Get(id uuid.UUID) (*domain.LoanRequest, error) {
	return s.requestRepo.GetByID(id)
}

// Approve marks a request approved and tells the member.
func (s *LoanRequestService) Approve(ctx context.Context, id uuid.UUID) (*domain.LoanRequest, error) {
	request, err := s.requestRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.SetStatus(id, domain.RequestStatusApproved); err != nil {
		return nil, err
	}
	request.Status = domain.RequestStatusApproved

	if request.TelegramChatID != "" {
		s.send(ctx, request.TelegramChatID,
			"✅ درخواست وام شما تأیید شد و در لیست اعطای وام قرار گرفتید. جزئیات از طرف مدیر صندوق اعلام می‌شود.")
	}
	s.publish(websocket.LoanRequestApproved(request))
	return request, nil
}

// Reject marks a request rejected and tells the member, including the
// reason when one was given.
func (s *LoanRequestService) Reject(ctx context.Context, id uuid.UUID, reason string) (*domain.LoanRequest, error) {
	request, err := s.requestRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.SetStatus(id, domain.RequestStatusRejected); err != nil {
		return nil, err
	}
	request.Status = domain.RequestStatusRejected

	if request.TelegramChatID != "" {
		text := "❌ درخواست وام شما رد شد."
		if reason != "" {
			text += "\nعلت: " + reason
		}
		s.send(ctx, request.TelegramChatID, text)
	}
	s.publish(websocket.LoanRequestRejected(request))
	return request, nil
}

// notifySubmission fans out the new-request notification to the configured
// admin targets.
func (s *LoanRequestService) notifySubmission(ctx context.Context, member *domain.Member, request *domain.LoanRequest) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load telegram settings")
		return
	}

	tmplCtx := map[string]string{
		"name":   member.FullName,
		"amount": shamsi.FormatAmount(request.Amount),
		"months": fmt.Sprintf("%d", request.DueMonths),
	}
	text := util.FormatTemplate(settings.LoanRequestAdminTemplate, tmplCtx)
	if text == "" {
		text = fmt.Sprintf("📝 درخواست وام جدید از %s به مبلغ %s تومان (%d ماهه). در پنل مدیریت بررسی کنید.",
			tmplCtx["name"], tmplCtx["amount"], request.DueMonths)
	}

	if settings.SendLoanRequestToAdmin && settings.NotifyTarget != "" {
		s.send(ctx, settings.NotifyTarget, text)
	}
	if settings.SendLoanRequestGroup && settings.AdminGroupTarget != "" {
		s.send(ctx, settings.AdminGroupTarget, text)
	}
}

func (s *LoanRequestService) send(ctx context.Context, target, text string) {
	if err := s.notifier.SendMessage(ctx, target, text); err != nil {
		s.logger.Warn().Err(err).Str("target", target).Msg("Failed to send loan request notification")
	}
}
