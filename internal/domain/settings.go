package domain

import "sort"

// DefaultReminderDays is used whenever no valid advance offsets are
// configured.
var DefaultReminderDays = []int{7, 3, 1}

// TelegramSettings is the admin-editable messaging configuration. A single
// row is persisted; OverdueListLastSentDate is the once-per-day idempotency
// gate for the overdue digest and is the only field the reminder engine
// writes.
type TelegramSettings struct {
	AdminTarget        string `json:"adminTarget"`
	AdminChannelTarget string `json:"adminChannelTarget"`
	AdminGroupTarget   string `json:"adminGroupTarget"`
	NotifyTarget       string `json:"notifyTarget"`

	SendReceiptMember      bool `json:"sendReceiptMember"`
	SendReceiptGroup       bool `json:"sendReceiptGroup"`
	SendManualPaymentGroup bool `json:"sendManualPaymentGroup"`
	SendLoanRequestGroup   bool `json:"sendLoanRequestGroup"`
	SendLoanRequestToAdmin bool `json:"sendLoanRequestToAdmin"`
	SendPaymentToAdmin     bool `json:"sendPaymentToAdmin"`

	ReceiptMemberTemplate      string `json:"receiptMemberTemplate"`
	ReceiptGroupTemplate       string `json:"receiptGroupTemplate"`
	ManualPaymentGroupTemplate string `json:"manualPaymentGroupTemplate"`
	LoanRequestAdminTemplate   string `json:"loanRequestAdminTemplate"`
	PaymentAdminTemplate       string `json:"paymentAdminTemplate"`

	ReminderDaysBefore      []int  `json:"reminderDaysBefore"`
	SendReminderToMember    bool   `json:"sendReminderToMember"`
	SendOverdueListToAdmin  bool   `json:"sendOverdueListToAdmin"`
	SendOverdueListToGroup  bool   `json:"sendOverdueListToGroup"`
	SendOverdueListToMember bool   `json:"sendOverdueListToMember"`
	OverdueListLastSentDate string `json:"overdueListLastSentDate"`
}

// DefaultTelegramSettings mirrors the defaults applied when no settings row
// exists yet: member-facing sends on, broadcast overdue lists off.
func DefaultTelegramSettings() *TelegramSettings {
	return &TelegramSettings{
		SendReceiptMember:      true,
		SendReceiptGroup:       true,
		SendManualPaymentGroup: true,
		SendLoanRequestGroup:   true,
		SendLoanRequestToAdmin: true,
		SendPaymentToAdmin:     true,
		SendReminderToMember:   true,
		ReminderDaysBefore:     append([]int(nil), DefaultReminderDays...),
	}
}

// EffectiveReminderDays returns the configured advance offsets, descending,
// with non-negative values only; falls back to the 7/3/1 default.
func (s *TelegramSettings) EffectiveReminderDays() []int {
	var days []int
	for _, d := range s.ReminderDaysBefore {
		if d >= 0 {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return append([]int(nil), DefaultReminderDays...)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(days)))
	return days
}

// OverdueAudienceEnabled reports whether any overdue digest audience is on.
func (s *TelegramSettings) OverdueAudienceEnabled() bool {
	return s.SendOverdueListToAdmin || s.SendOverdueListToGroup || s.SendOverdueListToMember
}

type SettingsRepository interface {
	Get() (*TelegramSettings, error)
	Save(settings *TelegramSettings) (*TelegramSettings, error)
	// SetOverdueListLastSentDate updates only the digest gate, leaving the
	// rest of the settings untouched.
	SetOverdueListLastSentDate(date string) error
}
