package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/observability/metrics"
	"github.com/sandoghapp/sandogh-backend/internal/shamsi"
	"github.com/sandoghapp/sandogh-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// dueResendSpacing is the minimum gap between the two due-day sends.
const dueResendSpacing = 4 * time.Hour

// OverdueItem is one line of the daily overdue digest: the earliest unpaid,
// lapsed installment of a loan.
type OverdueItem struct {
	Member      *domain.Member  `json:"member"`
	Loan        *domain.Loan    `json:"loan"`
	MonthNum    int             `json:"monthNum"`
	DueDate     shamsi.Date     `json:"dueDate"`
	Installment decimal.Decimal `json:"installment"`
}

// ReminderService drives the installment reminder campaign: advance
// reminders, the twice-spaced due-day reminder and the once-daily overdue
// digest. Every decision is re-derived each sweep from the stored loans,
// balances and reminder bookkeeping, so repeated invocation is safe.
type ReminderService struct {
	loanRepo       domain.LoanRepository
	memberRepo     domain.MemberRepository
	settingsRepo   domain.SettingsRepository
	notifier       domain.Notifier
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger

	// adminGroupTarget is the env-configured fallback group chat id, merged
	// into the digest group audience alongside the settings targets.
	adminGroupTarget string

	now     func() time.Time
	sweepMu sync.Mutex
}

// NewReminderService creates a new ReminderService
func NewReminderService(
	loanRepo domain.LoanRepository,
	memberRepo domain.MemberRepository,
	settingsRepo domain.SettingsRepository,
	notifier domain.Notifier,
	logger zerolog.Logger,
) *ReminderService {
	return &ReminderService{
		loanRepo:     loanRepo,
		memberRepo:   memberRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		logger:       logger.With().Str("component", "reminder_service").Logger(),
		now:          time.Now,
	}
}

// SetEventPublisher sets the publisher for real-time admin-panel updates
func (s *ReminderService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetAdminGroupTarget sets the fallback group chat id for the overdue digest
func (s *ReminderService) SetAdminGroupTarget(target string) {
	s.adminGroupTarget = target
}

func (s *ReminderService) publish(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// RunSweep executes one reminder pass over all active loans. Sweeps are
// non-reentrant: a tick arriving while the previous sweep is still running
// is dropped so the idempotency bookkeeping never races with itself. No
// failure on one loan stops the others; errors are logged and the next
// scheduled sweep retries from a fresh read.
func (s *ReminderService) RunSweep(ctx context.Context) {
	if !s.sweepMu.TryLock() {
		metrics.SweepsSkipped.Inc()
		s.logger.Warn().Msg("Previous sweep still running, skipping tick")
		return
	}
	defer s.sweepMu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Reminder sweep panicked")
		}
	}()

	settings, err := s.settingsRepo.Get()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load telegram settings")
		return
	}
	loans, err := s.loanRepo.ListActive()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list active loans")
		return
	}
	members, err := s.memberRepo.List()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list members")
		return
	}
	memberByID := make(map[uuid.UUID]*domain.Member, len(members))
	for _, m := range members {
		memberByID[m.ID] = m
	}

	today := shamsi.FromGregorian(s.now())

	totalSent := 0
	for _, loan := range loans {
		totalSent += s.processLoan(ctx, loan, memberByID[loan.MemberID], today, settings)
	}

	s.sendOverdueDigest(ctx, loans, memberByID, today, settings)

	elapsed := time.Since(start)
	metrics.SweepDuration.Observe(elapsed.Seconds())
	s.logger.Info().
		Int("loans", len(loans)).
		Int("reminders_sent", totalSent).
		Str("today", today.String()).
		Dur("elapsed", elapsed).
		Msg("Completed reminder sweep")
}

// processLoan evaluates every unpaid installment of one loan against today
// and fires at most one stage per installment. Loans without a resolvable
// member, a Telegram target, a parseable date or a positive term are
// silently skipped.
func (s *ReminderService) processLoan(ctx context.Context, loan *domain.Loan, member *domain.Member, today shamsi.Date, settings *domain.TelegramSettings) int {
	if member == nil || !member.HasTelegram() {
		return 0
	}
	if !settings.SendReminderToMember {
		return 0
	}
	if loan.DueMonths <= 0 {
		return 0
	}
	origin, ok := shamsi.Parse(loan.Date)
	if !ok {
		return 0
	}

	installment := MonthlyInstallment(loan.Amount, loan.DueMonths)
	paid := PaidInstallments(loan.Amount, member.LoanBalance, installment)
	installmentText := shamsi.FormatAmount(installment)
	reminderDays := settings.EffectiveReminderDays()

	sent := 0
	current := loan
	for monthNum := 1; monthNum <= int(loan.DueMonths); monthNum++ {
		if monthNum <= paid {
			continue
		}
		dueDate := shamsi.AddMonths(origin, monthNum)
		diff := shamsi.DiffDays(today, dueDate)
		dueDisplay := shamsi.FormatForDisplay(dueDate)

		stage := domain.AdvanceStage(diff)
		if containsInt(reminderDays, diff) && !current.ReminderSent.Flag(monthNum, stage) {
			dayLabel := fmt.Sprintf("%d روز دیگر", diff)
			if diff == 1 {
				dayLabel = "فردا"
			}
			text := fmt.Sprintf(
				"📋 یادآوری قسط وام (ماه %d)\n\nمبلغ قسط این ماه: %s تومان.\nتاریخ سررسید این قسط %s، %s می‌باشد.",
				monthNum, installmentText, dayLabel, dueDisplay,
			)
			s.deliver(ctx, member.TelegramChatID, text)
			current = current.WithReminderSent(monthNum, stage, true)
			s.persistReminderState(current)
			metrics.RemindersSent.WithLabelValues(stage).Inc()
			s.publish(websocket.LoanReminded(reminderEventPayload(current, monthNum, stage)))
			sent++
		} else if diff == 0 {
			dueMsg := fmt.Sprintf(
				"📋 امروز تاریخ سررسید قسط ماه %d وام شماست (%s تومان).\n\nاز طریق گزینه «پرداخت» جهت پرداخت اقدام کنید.\nبا تشکر — مدیر صندوق",
				monthNum, installmentText,
			)
			switch current.ReminderSent.DueCount(monthNum) {
			case 0:
				s.deliver(ctx, member.TelegramChatID, dueMsg)
				current = current.
					WithReminderSent(monthNum, domain.StageDue, 1).
					WithReminderSent(monthNum, domain.StageDueFirstAt, s.now().UTC().Format(time.RFC3339))
				s.persistReminderState(current)
				metrics.RemindersSent.WithLabelValues(domain.StageDue).Inc()
				s.publish(websocket.LoanReminded(reminderEventPayload(current, monthNum, domain.StageDue)))
				sent++
			case 1:
				// A missing first-send timestamp counts as elapsed.
				firstAt, ok := current.ReminderSent.DueFirstAt(monthNum)
				if !ok || s.now().Sub(firstAt) >= dueResendSpacing {
					s.deliver(ctx, member.TelegramChatID, dueMsg)
					current = current.WithReminderSent(monthNum, domain.StageDue, 2)
					s.persistReminderState(current)
					metrics.RemindersSent.WithLabelValues(domain.StageDue).Inc()
					s.publish(websocket.LoanReminded(reminderEventPayload(current, monthNum, domain.StageDue)))
					sent++
				}
			}
		}
	}
	return sent
}

// collectOverdue finds, per loan, the earliest unpaid installment whose due
// date has lapsed. A loan contributes at most one item even when several of
// its installments are overdue.
func collectOverdue(loans []*domain.Loan, memberByID map[uuid.UUID]*domain.Member, today shamsi.Date) []OverdueItem {
	var items []OverdueItem
	for _, loan := range loans {
		member := memberByID[loan.MemberID]
		if member == nil || loan.DueMonths <= 0 {
			continue
		}
		origin, ok := shamsi.Parse(loan.Date)
		if !ok {
			continue
		}
		installment := MonthlyInstallment(loan.Amount, loan.DueMonths)
		paid := PaidInstallments(loan.Amount, member.LoanBalance, installment)
		for monthNum := 1; monthNum <= int(loan.DueMonths); monthNum++ {
			if monthNum <= paid {
				continue
			}
			dueDate := shamsi.AddMonths(origin, monthNum)
			if shamsi.DiffDays(today, dueDate) < 0 {
				items = append(items, OverdueItem{
					Member:      member,
					Loan:        loan,
					MonthNum:    monthNum,
					DueDate:     dueDate,
					Installment: installment,
				})
				break
			}
		}
	}
	return items
}

// sendOverdueDigest builds and delivers the consolidated overdue list at
// most once per Shamsi calendar day, gated by the persisted last-sent date.
func (s *ReminderService) sendOverdueDigest(ctx context.Context, loans []*domain.Loan, memberByID map[uuid.UUID]*domain.Member, today shamsi.Date, settings *domain.TelegramSettings) {
	if !settings.OverdueAudienceEnabled() {
		return
	}
	todayKey := today.String()
	if settings.OverdueListLastSentDate == todayKey {
		return
	}

	items := collectOverdue(loans, memberByID, today)
	if len(items) == 0 {
		return
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		name := item.Member.FullName
		if name == "" {
			name = "نامشخص"
		}
		lines = append(lines, fmt.Sprintf(
			"• %s — قسط ماه %d، سررسید %s (%s تومان)",
			name, item.MonthNum, shamsi.FormatForDisplay(item.DueDate), shamsi.FormatAmount(item.Installment),
		))
	}
	listText := fmt.Sprintf(
		"📋 لیست معوقین (سررسید گذشته، پرداخت نشده) — %s\n\n%s",
		shamsi.FormatForDisplay(today), strings.Join(lines, "\n"),
	)

	if settings.SendOverdueListToAdmin {
		if target := strings.TrimSpace(settings.NotifyTarget); target != "" {
			s.deliver(ctx, target, listText)
		}
	}
	if settings.SendOverdueListToGroup {
		for _, target := range uniqueTargets(
			settings.AdminChannelTarget,
			settings.AdminGroupTarget,
			settings.AdminTarget,
			s.adminGroupTarget,
		) {
			s.deliver(ctx, target, listText)
		}
	}
	if settings.SendOverdueListToMember {
		const memberMsg = "📋 یادآوری: قسط وام شما سررسید گذشته و پرداخت نشده است. لطفاً از طریق گزینه «پرداخت» در ربات اقدام کنید.\nبا تشکر — مدیر صندوق"
		for _, item := range items {
			if item.Member.HasTelegram() {
				s.deliver(ctx, item.Member.TelegramChatID, memberMsg)
			}
		}
	}

	metrics.OverdueDigests.Inc()
	s.publish(websocket.OverdueListSent(items))

	if err := s.settingsRepo.SetOverdueListLastSentDate(todayKey); err != nil {
		s.logger.Error().Err(err).Str("date", todayKey).Msg("Failed to persist overdue digest date")
	}
}

// deliver sends best-effort: a failure is logged and counted, and the stage
// is still marked as attempted by the caller, so a transient outage cannot
// turn into a re-delivery storm on later sweeps.
func (s *ReminderService) deliver(ctx context.Context, target, text string) {
	if err := s.notifier.SendMessage(ctx, target, text); err != nil {
		metrics.SendFailures.Inc()
		s.logger.Warn().Err(err).Str("target", target).Msg("Failed to send telegram message")
	}
}

func (s *ReminderService) persistReminderState(loan *domain.Loan) {
	if err := s.loanRepo.UpdateReminderSent(loan.ID, loan.ReminderSent); err != nil {
		s.logger.Error().Err(err).Str("loan_id", loan.ID.String()).Msg("Failed to persist reminder state")
	}
}

func reminderEventPayload(loan *domain.Loan, monthNum int, stage string) map[string]any {
	return map[string]any{
		"loanId":   loan.ID,
		"memberId": loan.MemberID,
		"monthNum": monthNum,
		"stage":    stage,
	}
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func uniqueTargets(targets ...string) []string {
	seen := make(map[string]struct{}, len(targets))
	var out []string
	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
