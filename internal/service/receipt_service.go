package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/repository/storage"
	"github.com/sandoghapp/sandogh-backend/internal/shamsi"
	"github.com/sandoghapp/sandogh-backend/internal/websocket"
)

const (
	MaxReceiptSize  = 5 * 1024 * 1024 // 5MB
	MinReceiptWidth = 50
	ThumbnailWidth  = 200
	JPEGQuality     = 85

	presignedURLExpiry = 15 * time.Minute
)

var (
	ErrReceiptTooLarge           = errors.New("file too large. Maximum size is 5MB")
	ErrReceiptInvalidImage       = errors.New("invalid image data")
	ErrReceiptTooSmall           = errors.New("image too small")
	ErrReceiptStorageUnavailable = errors.New("receipt storage not configured")
)

// ReceiptService handles receipt photo submission and review. Approving a
// submission records the corresponding payment.
type ReceiptService struct {
	receiptRepo    domain.ReceiptSubmissionRepository
	memberRepo     domain.MemberRepository
	loanRepo       domain.LoanRepository
	paymentService *PaymentService
	store          storage.ReceiptStore
	notifier       domain.Notifier
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	receiptRepo domain.ReceiptSubmissionRepository,
	memberRepo domain.MemberRepository,
	loanRepo domain.LoanRepository,
	paymentService *PaymentService,
	store storage.ReceiptStore,
	notifier domain.Notifier,
	logger zerolog.Logger,
) *ReceiptService {
	return &ReceiptService{
		receiptRepo:    receiptRepo,
		memberRepo:     memberRepo,
		loanRepo:       loanRepo,
		paymentService: paymentService,
		store:          store,
		notifier:       notifier,
		logger:         logger.With().Str("component", "receipt_service").Logger(),
	}
}

// SetEventPublisher sets the publisher for real-time admin-panel updates
func (s *ReceiptService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ReceiptService) publish(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// IsEnabled indicates whether receipt uploads are supported (storage configured).
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.store != nil
}

// SubmitReceiptInput contains input for submitting a receipt
type SubmitReceiptInput struct {
	MemberID uuid.UUID
	Amount   decimal.Decimal
	Date     string
	Image    []byte
	Note     *string
}

// Submit stores a receipt photo with a thumbnail and files it for review.
func (s *ReceiptService) Submit(ctx context.Context, input SubmitReceiptInput) (*domain.ReceiptSubmission, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageUnavailable
	}
	if len(input.Image) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(input.Image), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrReceiptInvalidImage
	}
	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptWidth {
		return nil, ErrReceiptTooSmall
	}

	member, err := s.memberRepo.GetByID(input.MemberID)
	if err != nil {
		return nil, err
	}

	original, err := encodeJPEG(img)
	if err != nil {
		return nil, err
	}
	thumb, err := encodeJPEG(imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos))
	if err != nil {
		return nil, err
	}

	imageKey := storage.ReceiptObjectPath(member.ID, "original")
	thumbKey := storage.ReceiptObjectPath(member.ID, "thumb")
	if _, err := s.store.Upload(ctx, imageKey, bytes.NewReader(original), "image/jpeg", int64(len(original))); err != nil {
		return nil, err
	}
	if _, err := s.store.Upload(ctx, thumbKey, bytes.NewReader(thumb), "image/jpeg", int64(len(thumb))); err != nil {
		return nil, err
	}

	date, ok := shamsi.Parse(input.Date)
	if !ok {
		date = shamsi.Today()
	}

	submission := &domain.ReceiptSubmission{
		MemberID:     member.ID,
		Amount:       input.Amount,
		Date:         date.String(),
		ImageKey:     imageKey,
		ThumbnailKey: thumbKey,
		Status:       domain.RequestStatusPending,
		Note:         input.Note,
	}
	created, err := s.receiptRepo.Create(submission)
	if err != nil {
		return nil, err
	}

	s.publish(websocket.ReceiptSubmitted(created))
	return created, nil
}

// List returns all receipt submissions
func (s *ReceiptService) List() ([]*domain.ReceiptSubmission, error) {
	return s.receiptRepo.List()
}

// ListPending returns submissions awaiting review
func (s *ReceiptService) ListPending() ([]*domain.ReceiptSubmission, error) {
	return s.receiptRepo.ListPending()
}

// Get retrieves a receipt submission by ID
func (s *ReceiptService) Get(id uuid.UUID) (*domain.ReceiptSubmission, error) {
	return s.receiptRepo.GetByID(id)
}

// ImageURL returns a short-lived presigned URL for a stored receipt image.
func (s *ReceiptService) ImageURL(ctx context.Context, objectPath string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrReceiptStorageUnavailable
	}
	return s.store.GeneratePresignedURL(ctx, objectPath, presignedURLExpiry)
}

// Approve accepts a receipt and records the payment: an installment when
// the member has an active loan, otherwise a deposit.
func (s *ReceiptService) Approve(ctx context.Context, id uuid.UUID) (*domain.ReceiptSubmission, error) {
	submission, err := s.receiptRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	kind := domain.PaymentKindDeposit
	var loanID *uuid.UUID
	count, err := s.loanRepo.CountActiveByMember(submission.MemberID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		kind = domain.PaymentKindInstallment
		if active, err := s.loanRepo.ListActive(); err == nil {
			for _, loan := range active {
				if loan.MemberID == submission.MemberID {
					loanID = &loan.ID
					break
				}
			}
		}
	}

	imageKey := submission.ImageKey
	if _, err := s.paymentService.Create(ctx, CreatePaymentInput{
		MemberID:   submission.MemberID,
		LoanID:     loanID,
		Kind:       kind,
		Amount:     submission.Amount,
		Date:       submission.Date,
		Note:       submission.Note,
		ReceiptKey: &imageKey,
	}); err != nil {
		return nil, err
	}

	if err := s.receiptRepo.SetStatus(id, domain.RequestStatusApproved); err != nil {
		return nil, err
	}
	submission.Status = domain.RequestStatusApproved

	s.notifyDecision(ctx, submission, true)
	s.publish(websocket.ReceiptApproved(submission))
	return submission, nil
}

// Reject declines a receipt and tells the member.
func (s *ReceiptService) Reject(ctx context.Context, id uuid.UUID) (*domain.ReceiptSubmission, error) {
	submission, err := s.receiptRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.receiptRepo.SetStatus(id, domain.RequestStatusRejected); err != nil {
		return nil, err
	}
	submission.Status = domain.RequestStatusRejected

	s.notifyDecision(ctx, submission, false)
	return submission, nil
}

func (s *ReceiptService) notifyDecision(ctx context.Context, submission *domain.ReceiptSubmission, approved bool) {
	member, err := s.memberRepo.GetByID(submission.MemberID)
	if err != nil || !member.HasTelegram() {
		return
	}
	text := "✅ واریزی شما توسط مدیر صندوق تأیید و ثبت شد."
	if !approved {
		text = "❌ واریزی ارسال‌شده تأیید نشد. در صورت ابهام با مدیر صندوق تماس بگیرید."
	}
	if err := s.notifier.SendMessage(ctx, member.TelegramChatID, text); err != nil {
		s.logger.Warn().Err(err).Str("target", member.TelegramChatID).Msg("Failed to send receipt decision")
	}
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, ErrReceiptInvalidImage
	}
	return buf.Bytes(), nil
}
