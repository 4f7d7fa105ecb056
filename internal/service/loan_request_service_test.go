package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/testutil"
)

type requestFixture struct {
	service      *LoanRequestService
	memberRepo   *testutil.MockMemberRepository
	settingsRepo *testutil.MockSettingsRepository
	notifier     *testutil.RecordingNotifier
	member       *domain.Member
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()

	memberRepo := testutil.NewMockMemberRepository()
	requestRepo := testutil.NewMockLoanRequestRepository()
	settingsRepo := testutil.NewMockSettingsRepository()
	notifier := testutil.NewRecordingNotifier()

	member, err := memberRepo.Create(&domain.Member{
		FullName:       "علی رضایی",
		Phone:          "09123456789",
		TelegramChatID: "chat-1",
	})
	assert.NoError(t, err)

	svc := NewLoanRequestService(requestRepo, memberRepo, settingsRepo, notifier, zerolog.Nop())
	return &requestFixture{
		service:      svc,
		memberRepo:   memberRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		member:       member,
	}
}

func TestRequestSubmit_Success(t *testing.T) {
	f := newRequestFixture(t)

	request, err := f.service.Submit(context.Background(), SubmitInput{
		TelegramChatID: "chat-1",
		Amount:         decimal.NewFromInt(10000000),
		DueMonths:      12,
	})

	assert.NoError(t, err)
	assert.Equal(t, f.member.ID, request.MemberID)
	assert.Equal(t, domain.RequestStatusPending, request.Status)
}

func TestRequestSubmit_UnlinkedChat(t *testing.T) {
	f := newRequestFixture(t)

	_, err := f.service.Submit(context.Background(), SubmitInput{
		TelegramChatID: "chat-unknown",
		Amount:         decimal.NewFromInt(10000000),
		DueMonths:      12,
	})

	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestRequestSubmit_OutstandingLoanBalance(t *testing.T) {
	f := newRequestFixture(t)

	_, err := f.memberRepo.AdjustBalances(f.member.ID, decimal.Zero, decimal.NewFromInt(5000000))
	assert.NoError(t, err)

	_, err = f.service.Submit(context.Background(), SubmitInput{
		TelegramChatID: "chat-1",
		Amount:         decimal.NewFromInt(10000000),
		DueMonths:      12,
	})

	assert.ErrorIs(t, err, domain.ErrLoanMemberHasActive)
}

func TestRequestSubmit_OpenRequestRefused(t *testing.T) {
	f := newRequestFixture(t)

	_, err := f.service.Submit(context.Background(), SubmitInput{
		TelegramChatID: "chat-1",
		Amount:         decimal.NewFromInt(10000000),
		DueMonths:      12,
	})
	assert.NoError(t, err)

	_, err = f.service.Submit(context.Background(), SubmitInput{
		TelegramChatID: "chat-1",
		Amount:         decimal.NewFromInt(2000000),
		DueMonths:      6,
	})

	assert.ErrorIs(t, err, domain.ErrRequestAlreadyOpen)
}

func TestRequestSubmit_RejectedRequestAllowsResubmit(t *testing.T) {
	f := newRequestFixture(t)

	first, err := f.service.Submit(context.Background(), SubmitInput{
		TelegramChatID: "chat-1",
		Amount:         decimal.NewFromInt(10000000),
		DueMonths:      12,
	})
	assert.NoError(t, err)

	_, err = f.service.Reject(context.Background(), first.ID, "")
	assert.NoError(t, err)

	_, err = f.service.Submit(context.Background(), SubmitInput{
		TelegramChatID: "chat-1",
		Amount:         decimal.NewFromInt(5000000),
		DueMonths:      6,
	})
	assert.NoError(t, err)
}

func TestRequestSubmit_NotifiesAdminTargets(t *testing.T) {
	f := newRequestFixture(t)

	settings, err := f.settingsRepo.Get()
	assert.NoError(t, err)
	settings.NotifyTarget = "chat-admin"
	settings.AdminGroupTarget = "@sandogh_admins"

	_, err = f.service.Submit(context.Background(), SubmitInput{
		TelegramChatID: "chat-1",
		Amount:         decimal.NewFromInt(10000000),
		DueMonths:      12,
	})
	assert.NoError(t, err)

	assert.Equal(t, 1, f.notifier.CountFor("chat-admin"))
	assert.Equal(t, 1, f.notifier.CountFor("@sandogh_admins"))
}

func TestRequestApprove_NotifiesMember(t *testing.T) {
	f := newRequestFixture(t)

	request, err := f.service.Submit(context.Background(), SubmitInput{
		TelegramChatID: "chat-1",
		Amount:         decimal.NewFromInt(10000000),
		DueMonths:      12,
	})
	assert.NoError(t, err)
	f.notifier.Reset()

	approved, err := f.service.Approve(context.Background(), request.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, approved.Status)
	assert.Equal(t, 1, f.notifier.CountFor("chat-1"))
}

func TestRequestReject_ReasonIncluded(t *testing.T) {
	f := newRequestFixture(t)

	request, err := f.service.Submit(context.Background(), SubmitInput{
		TelegramChatID: "chat-1",
		Amount:         decimal.NewFromInt(10000000),
		DueMonths:      12,
	})
	assert.NoError(t, err)
	f.notifier.Reset()

	rejected, err := f.service.Reject(context.Background(), request.ID, "سقف وام تکمیل است")

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)
	assert.Equal(t, 1, f.notifier.CountFor("chat-1"))
	assert.Contains(t, f.notifier.Sent[0].Text, "سقف وام تکمیل است")
}
