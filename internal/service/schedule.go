package service

import (
	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/shamsi"
	"github.com/shopspring/decimal"
)

// ScheduleEntry is one derived monthly installment of a loan. Installments
// are not stored; they are recomputed from the loan and the member's current
// balance on every evaluation.
type ScheduleEntry struct {
	MonthNum int         `json:"monthNum"`
	DueDate  shamsi.Date `json:"dueDate"`
	Paid     bool        `json:"paid"`
}

// MonthlyInstallment returns floor(amount / dueMonths), or zero for a
// zero-length term.
func MonthlyInstallment(amount decimal.Decimal, dueMonths int32) decimal.Decimal {
	if dueMonths <= 0 {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt32(dueMonths)).Floor()
}

// PaidInstallments infers how many installments are covered by the amount
// repaid so far. Progress is derived purely from the aggregate balance, not
// from individual payment records.
func PaidInstallments(amount, loanBalance, installment decimal.Decimal) int {
	if installment.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	totalRepaid := amount.Sub(loanBalance)
	return int(totalRepaid.Div(installment).Floor().IntPart())
}

// InstallmentSchedule derives the per-month due dates and paid state for a
// loan. A zero-length term or an unparseable origination date yields an
// empty schedule; such loans are excluded from reminders rather than
// treated as errors.
func InstallmentSchedule(loan *domain.Loan, member *domain.Member) []ScheduleEntry {
	if loan.DueMonths <= 0 {
		return nil
	}
	origin, ok := shamsi.Parse(loan.Date)
	if !ok {
		return nil
	}
	installment := MonthlyInstallment(loan.Amount, loan.DueMonths)
	paid := PaidInstallments(loan.Amount, member.LoanBalance, installment)

	entries := make([]ScheduleEntry, 0, loan.DueMonths)
	for monthNum := 1; monthNum <= int(loan.DueMonths); monthNum++ {
		entries = append(entries, ScheduleEntry{
			MonthNum: monthNum,
			DueDate:  shamsi.AddMonths(origin, monthNum),
			Paid:     monthNum <= paid,
		})
	}
	return entries
}
