package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/testutil"
)

// Fixed clock anchors, all relative to a loan originated on Shamsi
// 1402-01-15 (2023-04-04). The first installment falls due on 1402-02-15,
// which is 2023-05-05.
var (
	sevenDaysBefore = time.Date(2023, 4, 28, 9, 0, 0, 0, time.UTC)
	threeDaysBefore = time.Date(2023, 5, 2, 9, 0, 0, 0, time.UTC)
	oneDayBefore    = time.Date(2023, 5, 4, 9, 0, 0, 0, time.UTC)
	dueDay          = time.Date(2023, 5, 5, 9, 0, 0, 0, time.UTC)
	afterDue        = time.Date(2023, 5, 22, 9, 0, 0, 0, time.UTC)
)

type reminderFixture struct {
	service      *ReminderService
	loanRepo     *testutil.MockLoanRepository
	memberRepo   *testutil.MockMemberRepository
	settingsRepo *testutil.MockSettingsRepository
	notifier     *testutil.RecordingNotifier
	member       *domain.Member
	loan         *domain.Loan
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()

	loanRepo := testutil.NewMockLoanRepository()
	memberRepo := testutil.NewMockMemberRepository()
	settingsRepo := testutil.NewMockSettingsRepository()
	notifier := testutil.NewRecordingNotifier()

	member, err := memberRepo.Create(&domain.Member{
		FullName:       "علی رضایی",
		Phone:          "09120000001",
		TelegramChatID: "chat-1",
		LoanBalance:    decimal.NewFromInt(12000000),
	})
	assert.NoError(t, err)

	loan, err := loanRepo.Create(&domain.Loan{
		MemberID:  member.ID,
		Amount:    decimal.NewFromInt(12000000),
		Date:      "1402-01-15",
		DueMonths: 12,
		Status:    domain.LoanStatusActive,
	})
	assert.NoError(t, err)

	service := NewReminderService(loanRepo, memberRepo, settingsRepo, notifier, zerolog.Nop())

	return &reminderFixture{
		service:      service,
		loanRepo:     loanRepo,
		memberRepo:   memberRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		member:       member,
		loan:         loan,
	}
}

func (f *reminderFixture) setClock(at time.Time) {
	f.service.now = func() time.Time { return at }
}

func TestReminderService_AdvanceReminderIdempotent(t *testing.T) {
	f := newReminderFixture(t)
	f.setClock(sevenDaysBefore)

	f.service.RunSweep(context.Background())

	assert.Equal(t, 1, f.notifier.CountFor("chat-1"))
	assert.True(t, f.loan.ReminderSent.Flag(1, "7d"))
	assert.Equal(t, 1, f.loanRepo.ReminderUpdates)

	// Repeated sweeps on the same day must not resend or rewrite state.
	f.service.RunSweep(context.Background())
	f.service.RunSweep(context.Background())

	assert.Equal(t, 1, f.notifier.CountFor("chat-1"))
	assert.Equal(t, 1, f.loanRepo.ReminderUpdates)
}

func TestReminderService_AdvanceStagesAreIndependent(t *testing.T) {
	f := newReminderFixture(t)

	f.setClock(sevenDaysBefore)
	f.service.RunSweep(context.Background())
	f.setClock(threeDaysBefore)
	f.service.RunSweep(context.Background())
	f.setClock(oneDayBefore)
	f.service.RunSweep(context.Background())

	assert.Equal(t, 3, f.notifier.CountFor("chat-1"))
	assert.True(t, f.loan.ReminderSent.Flag(1, "7d"))
	assert.True(t, f.loan.ReminderSent.Flag(1, "3d"))
	assert.True(t, f.loan.ReminderSent.Flag(1, "1d"))
}

func TestReminderService_ConfiguredReminderDays(t *testing.T) {
	f := newReminderFixture(t)
	f.settingsRepo.Settings.ReminderDaysBefore = []int{3}

	// 7 days out is no longer a configured stage.
	f.setClock(sevenDaysBefore)
	f.service.RunSweep(context.Background())
	assert.Equal(t, 0, f.notifier.CountFor("chat-1"))

	f.setClock(threeDaysBefore)
	f.service.RunSweep(context.Background())
	assert.Equal(t, 1, f.notifier.CountFor("chat-1"))
	assert.True(t, f.loan.ReminderSent.Flag(1, "3d"))
}

func TestReminderService_DueDayTwiceWithSpacing(t *testing.T) {
	f := newReminderFixture(t)

	f.setClock(dueDay)
	f.service.RunSweep(context.Background())

	assert.Equal(t, 1, f.notifier.CountFor("chat-1"))
	assert.Equal(t, 1, f.loan.ReminderSent.DueCount(1))
	firstAt, ok := f.loan.ReminderSent.DueFirstAt(1)
	assert.True(t, ok)
	assert.Equal(t, dueDay.UTC(), firstAt.UTC())

	// One hour later: below the 4h spacing, no resend.
	f.setClock(dueDay.Add(1 * time.Hour))
	f.service.RunSweep(context.Background())
	assert.Equal(t, 1, f.notifier.CountFor("chat-1"))
	assert.Equal(t, 1, f.loan.ReminderSent.DueCount(1))

	// Five hours later: second and final send.
	f.setClock(dueDay.Add(5 * time.Hour))
	f.service.RunSweep(context.Background())
	assert.Equal(t, 2, f.notifier.CountFor("chat-1"))
	assert.Equal(t, 2, f.loan.ReminderSent.DueCount(1))

	// The counter is capped at two for the day.
	f.setClock(dueDay.Add(10 * time.Hour))
	f.service.RunSweep(context.Background())
	assert.Equal(t, 2, f.notifier.CountFor("chat-1"))
	assert.Equal(t, 2, f.loan.ReminderSent.DueCount(1))
}

func TestReminderService_DueDayMissingTimestampCountsAsElapsed(t *testing.T) {
	f := newReminderFixture(t)

	// Simulate legacy bookkeeping that recorded the first send without a
	// timestamp.
	f.loan.ReminderSent = domain.ReminderSent{"m1-due": float64(1)}

	f.setClock(dueDay)
	f.service.RunSweep(context.Background())

	assert.Equal(t, 1, f.notifier.CountFor("chat-1"))
	assert.Equal(t, 2, f.loan.ReminderSent.DueCount(1))
}

func TestReminderService_SkipsPaidInstallments(t *testing.T) {
	f := newReminderFixture(t)

	// One installment (1,000,000) already repaid.
	f.member.LoanBalance = decimal.NewFromInt(11000000)

	f.setClock(dueDay)
	f.service.RunSweep(context.Background())

	assert.Equal(t, 0, f.notifier.CountFor("chat-1"))
	assert.Equal(t, 0, f.loanRepo.ReminderUpdates)
}

func TestReminderService_SkipsIneligibleLoans(t *testing.T) {
	t.Run("member without telegram", func(t *testing.T) {
		f := newReminderFixture(t)
		f.member.TelegramChatID = ""
		f.setClock(sevenDaysBefore)
		f.service.RunSweep(context.Background())
		assert.Empty(t, f.notifier.Sent)
	})

	t.Run("member reminders disabled", func(t *testing.T) {
		f := newReminderFixture(t)
		f.settingsRepo.Settings.SendReminderToMember = false
		f.setClock(sevenDaysBefore)
		f.service.RunSweep(context.Background())
		assert.Empty(t, f.notifier.Sent)
	})

	t.Run("zero-length term", func(t *testing.T) {
		f := newReminderFixture(t)
		f.loan.DueMonths = 0
		f.setClock(sevenDaysBefore)
		f.service.RunSweep(context.Background())
		assert.Empty(t, f.notifier.Sent)
	})

	t.Run("unparseable date", func(t *testing.T) {
		f := newReminderFixture(t)
		f.loan.Date = "not-a-date"
		f.setClock(sevenDaysBefore)
		f.service.RunSweep(context.Background())
		assert.Empty(t, f.notifier.Sent)
	})

	t.Run("settled loan", func(t *testing.T) {
		f := newReminderFixture(t)
		f.loan.Status = domain.LoanStatusSettled
		f.setClock(sevenDaysBefore)
		f.service.RunSweep(context.Background())
		assert.Empty(t, f.notifier.Sent)
	})
}

func TestReminderService_DeliveryFailureStillMarksAttempted(t *testing.T) {
	f := newReminderFixture(t)
	f.notifier.FailFor["chat-1"] = errors.New("telegram unreachable")

	f.setClock(sevenDaysBefore)
	f.service.RunSweep(context.Background())

	assert.Equal(t, 0, f.notifier.CountFor("chat-1"))
	assert.True(t, f.loan.ReminderSent.Flag(1, "7d"))

	// Recovery of the notifier must not cause a late duplicate.
	delete(f.notifier.FailFor, "chat-1")
	f.service.RunSweep(context.Background())
	assert.Equal(t, 0, f.notifier.CountFor("chat-1"))
}

func TestReminderService_OverdueDigestOncePerDay(t *testing.T) {
	f := newReminderFixture(t)
	f.settingsRepo.Settings.SendOverdueListToAdmin = true
	f.settingsRepo.Settings.NotifyTarget = "admin-1"

	f.setClock(afterDue)
	f.service.RunSweep(context.Background())

	assert.Equal(t, 1, f.notifier.CountFor("admin-1"))
	assert.Equal(t, "1402-03-01", f.settingsRepo.Settings.OverdueListLastSentDate)

	// Any further sweep the same day is gated by the persisted date.
	f.service.RunSweep(context.Background())
	f.service.RunSweep(context.Background())
	assert.Equal(t, 1, f.notifier.CountFor("admin-1"))
}

func TestReminderService_OverdueDigestGroupTargetsDeduplicated(t *testing.T) {
	f := newReminderFixture(t)
	f.settingsRepo.Settings.SendOverdueListToGroup = true
	f.settingsRepo.Settings.AdminChannelTarget = "@sandogh_admins"
	f.settingsRepo.Settings.AdminGroupTarget = "@sandogh_admins"
	f.service.SetAdminGroupTarget("@sandogh_admins")

	f.setClock(afterDue)
	f.service.RunSweep(context.Background())

	assert.Equal(t, 1, f.notifier.CountFor("@sandogh_admins"))
}

func TestReminderService_OverdueDigestToMembers(t *testing.T) {
	f := newReminderFixture(t)
	f.settingsRepo.Settings.SendOverdueListToMember = true
	// Member advance reminders off, so the only message is the overdue note.
	f.settingsRepo.Settings.SendReminderToMember = false

	f.setClock(afterDue)
	f.service.RunSweep(context.Background())

	assert.Equal(t, 1, f.notifier.CountFor("chat-1"))
}

func TestReminderService_OverdueDigestSkippedWhenNothingOverdue(t *testing.T) {
	f := newReminderFixture(t)
	f.settingsRepo.Settings.SendOverdueListToAdmin = true
	f.settingsRepo.Settings.NotifyTarget = "admin-1"

	f.setClock(sevenDaysBefore)
	f.service.RunSweep(context.Background())

	assert.Equal(t, 0, f.notifier.CountFor("admin-1"))
	assert.Empty(t, f.settingsRepo.Settings.OverdueListLastSentDate)
}

func TestReminderService_FullCampaignLifecycle(t *testing.T) {
	f := newReminderFixture(t)

	for _, at := range []time.Time{sevenDaysBefore, threeDaysBefore, oneDayBefore, dueDay, dueDay.Add(5 * time.Hour)} {
		f.setClock(at)
		f.service.RunSweep(context.Background())
	}

	// Three advance stages plus two due-day sends for the first month.
	assert.Equal(t, 5, f.notifier.CountFor("chat-1"))
	assert.True(t, f.loan.ReminderSent.Flag(1, "7d"))
	assert.True(t, f.loan.ReminderSent.Flag(1, "3d"))
	assert.True(t, f.loan.ReminderSent.Flag(1, "1d"))
	assert.Equal(t, 2, f.loan.ReminderSent.DueCount(1))

	// The day after the due date nothing more is sent to the member.
	f.setClock(dueDay.Add(24 * time.Hour))
	f.service.RunSweep(context.Background())
	assert.Equal(t, 5, f.notifier.CountFor("chat-1"))
}
