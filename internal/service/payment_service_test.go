package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/testutil"
)

type paymentFixture struct {
	service      *PaymentService
	memberRepo   *testutil.MockMemberRepository
	loanRepo     *testutil.MockLoanRepository
	settingsRepo *testutil.MockSettingsRepository
	notifier     *testutil.RecordingNotifier
	member       *domain.Member
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	memberRepo := testutil.NewMockMemberRepository()
	loanRepo := testutil.NewMockLoanRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	settingsRepo := testutil.NewMockSettingsRepository()
	notifier := testutil.NewRecordingNotifier()

	member, err := memberRepo.Create(&domain.Member{
		FullName: "علی رضایی",
		Phone:    "09123456789",
	})
	assert.NoError(t, err)

	svc := NewPaymentService(paymentRepo, memberRepo, loanRepo, settingsRepo, notifier, zerolog.Nop())
	return &paymentFixture{
		service:      svc,
		memberRepo:   memberRepo,
		loanRepo:     loanRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		member:       member,
	}
}

func TestPaymentCreate_DepositGrowsBalance(t *testing.T) {
	f := newPaymentFixture(t)

	payment, err := f.service.Create(context.Background(), CreatePaymentInput{
		MemberID: f.member.ID,
		Kind:     domain.PaymentKindDeposit,
		Amount:   decimal.NewFromInt(500000),
		Date:     "1402-02-10",
	})

	assert.NoError(t, err)
	assert.Equal(t, "1402-02-10", payment.Date)

	member, err := f.memberRepo.GetByID(f.member.ID)
	assert.NoError(t, err)
	assert.True(t, member.DepositBalance.Equal(decimal.NewFromInt(500000)))
	assert.True(t, member.LoanBalance.IsZero())
}

func TestPaymentCreate_InstallmentShrinksLoanBalance(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.memberRepo.AdjustBalances(f.member.ID, decimal.Zero, decimal.NewFromInt(12000000))
	assert.NoError(t, err)

	_, err = f.service.Create(context.Background(), CreatePaymentInput{
		MemberID: f.member.ID,
		Kind:     domain.PaymentKindInstallment,
		Amount:   decimal.NewFromInt(1000000),
		Date:     "1402-02-15",
	})

	assert.NoError(t, err)

	member, err := f.memberRepo.GetByID(f.member.ID)
	assert.NoError(t, err)
	assert.True(t, member.LoanBalance.Equal(decimal.NewFromInt(11000000)))
}

func TestPaymentCreate_FinalInstallmentSettlesLoan(t *testing.T) {
	f := newPaymentFixture(t)

	loan, err := f.loanRepo.Create(&domain.Loan{
		ID:        uuid.New(),
		MemberID:  f.member.ID,
		Amount:    decimal.NewFromInt(1000000),
		Date:      "1402-01-15",
		DueMonths: 1,
		Status:    domain.LoanStatusActive,
	})
	assert.NoError(t, err)
	_, err = f.memberRepo.AdjustBalances(f.member.ID, decimal.Zero, decimal.NewFromInt(1000000))
	assert.NoError(t, err)

	_, err = f.service.Create(context.Background(), CreatePaymentInput{
		MemberID: f.member.ID,
		LoanID:   &loan.ID,
		Kind:     domain.PaymentKindInstallment,
		Amount:   decimal.NewFromInt(1000000),
		Date:     "1402-02-15",
	})
	assert.NoError(t, err)

	stored, err := f.loanRepo.GetByID(loan.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusSettled, stored.Status)
}

func TestPaymentCreate_InvalidAmount(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.service.Create(context.Background(), CreatePaymentInput{
		MemberID: f.member.ID,
		Kind:     domain.PaymentKindDeposit,
		Amount:   decimal.NewFromInt(-100),
		Date:     "1402-02-10",
	})

	assert.ErrorIs(t, err, domain.ErrPaymentAmountInvalid)
}

func TestPaymentCreate_InvalidKind(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.service.Create(context.Background(), CreatePaymentInput{
		MemberID: f.member.ID,
		Kind:     domain.PaymentKind("withdrawal"),
		Amount:   decimal.NewFromInt(100),
		Date:     "1402-02-10",
	})

	assert.ErrorIs(t, err, domain.ErrPaymentKindInvalid)
}

func TestPaymentCreate_ManualNotifiesGroupAndAdmin(t *testing.T) {
	f := newPaymentFixture(t)

	settings, err := f.settingsRepo.Get()
	assert.NoError(t, err)
	settings.AdminGroupTarget = "@sandogh_admins"
	settings.NotifyTarget = "chat-admin"

	_, err = f.service.Create(context.Background(), CreatePaymentInput{
		MemberID: f.member.ID,
		Kind:     domain.PaymentKindDeposit,
		Amount:   decimal.NewFromInt(500000),
		Date:     "1402-02-10",
		Manual:   true,
	})
	assert.NoError(t, err)

	assert.Equal(t, 1, f.notifier.CountFor("@sandogh_admins"))
	assert.Equal(t, 1, f.notifier.CountFor("chat-admin"))
}

func TestPaymentCreate_NonManualSkipsGroup(t *testing.T) {
	f := newPaymentFixture(t)

	settings, err := f.settingsRepo.Get()
	assert.NoError(t, err)
	settings.AdminGroupTarget = "@sandogh_admins"
	settings.NotifyTarget = "chat-admin"

	_, err = f.service.Create(context.Background(), CreatePaymentInput{
		MemberID: f.member.ID,
		Kind:     domain.PaymentKindDeposit,
		Amount:   decimal.NewFromInt(500000),
		Date:     "1402-02-10",
	})
	assert.NoError(t, err)

	assert.Zero(t, f.notifier.CountFor("@sandogh_admins"))
	assert.Equal(t, 1, f.notifier.CountFor("chat-admin"))
}

func TestPaymentCreate_UnparseableDateFallsBackToToday(t *testing.T) {
	f := newPaymentFixture(t)

	payment, err := f.service.Create(context.Background(), CreatePaymentInput{
		MemberID: f.member.ID,
		Kind:     domain.PaymentKindDeposit,
		Amount:   decimal.NewFromInt(500000),
		Date:     "??",
	})

	assert.NoError(t, err)
	assert.NotEqual(t, "??", payment.Date)
	assert.Len(t, payment.Date, 10)
}
