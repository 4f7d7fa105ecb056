package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/shamsi"
	"github.com/sandoghapp/sandogh-backend/internal/util"
	"github.com/sandoghapp/sandogh-backend/internal/websocket"
)

// PaymentService records deposits and installment repayments, keeps member
// balances in sync and fans out the configured Telegram notifications.
type PaymentService struct {
	paymentRepo    domain.PaymentRepository
	memberRepo     domain.MemberRepository
	loanRepo       domain.LoanRepository
	settingsRepo   domain.SettingsRepository
	notifier       domain.Notifier
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo domain.PaymentRepository,
	memberRepo domain.MemberRepository,
	loanRepo domain.LoanRepository,
	settingsRepo domain.SettingsRepository,
	notifier domain.Notifier,
	logger zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		memberRepo:   memberRepo,
		loanRepo:     loanRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		logger:       logger.With().Str("component", "payment_service").Logger(),
	}
}

// SetEventPublisher sets the publisher for real-time admin-panel updates
func (s *PaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PaymentService) publish(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// CreatePaymentInput contains input for recording a payment
type CreatePaymentInput struct {
	MemberID   uuid.UUID
	LoanID     *uuid.UUID
	Kind       domain.PaymentKind
	Amount     decimal.Decimal
	Date       string // Shamsi YYYY-MM-DD, Persian digits accepted
	Note       *string
	ReceiptKey *string

	// Manual marks admin-entered payments, which use the manual-payment
	// group template instead of the receipt template.
	Manual bool
}

// Create records a payment and adjusts the member's balances: deposits grow
// the deposit balance, installments shrink the loan balance. A loan whose
// balance reaches zero is settled automatically.
func (s *PaymentService) Create(ctx context.Context, input CreatePaymentInput) (*domain.Payment, error) {
	date, ok := shamsi.Parse(input.Date)
	if !ok {
		date = shamsi.Today()
	}

	payment := &domain.Payment{
		MemberID:   input.MemberID,
		LoanID:     input.LoanID,
		Kind:       input.Kind,
		Amount:     input.Amount,
		Date:       date.String(),
		Note:       input.Note,
		ReceiptKey: input.ReceiptKey,
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.GetByID(input.MemberID)
	if err != nil {
		return nil, err
	}

	created, err := s.paymentRepo.Create(payment)
	if err != nil {
		return nil, err
	}

	switch input.Kind {
	case domain.PaymentKindDeposit:
		member, err = s.memberRepo.AdjustBalances(member.ID, input.Amount, decimal.Zero)
	case domain.PaymentKindInstallment:
		member, err = s.memberRepo.AdjustBalances(member.ID, decimal.Zero, input.Amount.Neg())
	}
	if err != nil {
		return nil, err
	}

	if input.Kind == domain.PaymentKindInstallment && member.LoanBalance.LessThanOrEqual(decimal.Zero) {
		s.settleActiveLoans(member.ID)
	}

	s.notifyPayment(ctx, member, created, input.Manual)
	s.publish(websocket.PaymentCreated(created))
	return created, nil
}

// settleActiveLoans closes every active loan of a member whose balance has
// reached zero.
func (s *PaymentService) settleActiveLoans(memberID uuid.UUID) {
	loans, err := s.loanRepo.ListActive()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list loans for settlement")
		return
	}
	for _, loan := range loans {
		if loan.MemberID != memberID {
			continue
		}
		if err := s.loanRepo.SetStatus(loan.ID, domain.LoanStatusSettled); err != nil {
			s.logger.Error().Err(err).Str("loan_id", loan.ID.String()).Msg("Failed to settle loan")
			continue
		}
		loan.Status = domain.LoanStatusSettled
		s.publish(websocket.LoanUpdated(loan))
	}
}

// notifyPayment sends the configured admin and group notifications for a
// recorded payment. Delivery failures are logged, never propagated.
func (s *PaymentService) notifyPayment(ctx context.Context, member *domain.Member, payment *domain.Payment, manual bool) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load telegram settings")
		return
	}

	kindLabel := "واریز"
	if payment.Kind == domain.PaymentKindInstallment {
		kindLabel = "بازپرداخت"
	}
	tmplCtx := map[string]string{
		"name":   member.FullName,
		"amount": shamsi.FormatAmount(payment.Amount),
		"date":   shamsi.FormatForDisplay(mustParseDate(payment.Date)),
		"kind":   kindLabel,
	}

	if manual && settings.SendManualPaymentGroup && settings.AdminGroupTarget != "" {
		text := util.FormatTemplate(settings.ManualPaymentGroupTemplate, tmplCtx)
		if text == "" {
			text = "💵 پرداخت جدید: " + tmplCtx["name"] + " — " + kindLabel + " " + tmplCtx["amount"] + " تومان"
		}
		s.send(ctx, settings.AdminGroupTarget, text)
	}
	if settings.SendPaymentToAdmin && settings.NotifyTarget != "" {
		text := util.FormatTemplate(settings.PaymentAdminTemplate, tmplCtx)
		if text == "" {
			text = "💵 پرداخت ثبت شد: " + tmplCtx["name"] + " — " + kindLabel + " " + tmplCtx["amount"] + " تومان"
		}
		s.send(ctx, settings.NotifyTarget, text)
	}
}

func (s *PaymentService) send(ctx context.Context, target, text string) {
	if err := s.notifier.SendMessage(ctx, target, text); err != nil {
		s.logger.Warn().Err(err).Str("target", target).Msg("Failed to send payment notification")
	}
}

// Get retrieves a payment by ID
func (s *PaymentService) Get(id uuid.UUID) (*domain.Payment, error) {
	return s.paymentRepo.GetByID(id)
}

// List returns all payments
func (s *PaymentService) List() ([]*domain.Payment, error) {
	return s.paymentRepo.List()
}

// ListByMember returns a member's payments
func (s *PaymentService) ListByMember(memberID uuid.UUID) ([]*domain.Payment, error) {
	return s.paymentRepo.ListByMember(memberID)
}

func mustParseDate(value string) shamsi.Date {
	date, ok := shamsi.Parse(value)
	if !ok {
		return shamsi.Today()
	}
	return date
}
