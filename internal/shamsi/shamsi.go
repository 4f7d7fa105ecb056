// Package shamsi implements the Shamsi (Jalali) calendar arithmetic used for
// loan due dates: parsing lenient user input, month rollovers, day differences
// and Persian-digit display formatting.
package shamsi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var persianDigits = []rune("۰۱۲۳۴۵۶۷۸۹")

// Cumulative day count at the start of each Gregorian month (non-leap).
var gregorianDayCount = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// Date is a Shamsi calendar date. The zero value is not a valid date.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// ToASCIIDigits replaces Persian digits with their ASCII equivalents.
func ToASCIIDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		replaced := false
		for i, p := range persianDigits {
			if r == p {
				b.WriteByte(byte('0' + i))
				replaced = true
				break
			}
		}
		if !replaced {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToPersianDigits replaces ASCII digits with Persian digits.
func ToPersianDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(persianDigits[r-'0'])
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize canonicalizes a Shamsi date string to YYYY-MM-DD. It accepts
// Persian or ASCII digits and slash- or dash-separated forms, detecting
// whether the 4-digit year comes first or last. Input it cannot make sense of
// is returned digit-normalized but otherwise untouched; Parse decides whether
// that is usable.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	n := strings.ReplaceAll(ToASCIIDigits(strings.TrimSpace(s)), " ", "")
	if strings.Contains(n, "/") {
		parts := strings.Split(n, "/")
		if len(parts) == 3 {
			a, b, c := parts[0], parts[1], parts[2]
			if len(c) >= 4 {
				return fmt.Sprintf("%s-%s-%s", c, pad2(a), pad2(b))
			}
			if len(a) >= 4 {
				return fmt.Sprintf("%s-%s-%s", a, pad2(b), pad2(c))
			}
		}
	}
	return n
}

func pad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// Parse parses a Shamsi date string after normalization. Days beyond a
// month's length are clamped rather than rejected; anything non-numeric
// yields ok=false so callers can skip malformed records.
func Parse(s string) (Date, bool) {
	n := Normalize(s)
	if n == "" {
		return Date{}, false
	}
	parts := strings.Split(n, "-")
	if len(parts) != 3 {
		return Date{}, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Date{}, false
	}
	if m < 1 || m > 12 || d < 1 {
		return Date{}, false
	}
	if d > 31 {
		d = 31
	}
	return Date{Year: y, Month: m, Day: d}, true
}

// IsLeapYear reports whether the Shamsi year is a leap year under the
// four-year approximation used throughout this fund's records.
func IsLeapYear(year int) bool {
	return year%4 == 3
}

// DaysInMonth returns the number of days in a Shamsi month. Months 1-6 have
// 31 days, months 7-11 have 30, and Esfand has 30 in leap years, 29 otherwise.
func DaysInMonth(year, month int) int {
	switch {
	case month <= 6:
		return 31
	case month <= 11:
		return 30
	case IsLeapYear(year):
		return 30
	default:
		return 29
	}
}

// AddMonths rolls the date forward by n months, carrying year overflow and
// clamping the day to the landing month's length (day 31 falling into Esfand
// becomes day 29 or 30).
func AddMonths(d Date, n int) Date {
	if n < 0 {
		return d
	}
	y, m := d.Year, d.Month+n
	for m > 12 {
		m -= 12
		y++
	}
	day := d.Day
	if last := DaysInMonth(y, m); day > last {
		day = last
	}
	return Date{Year: y, Month: m, Day: day}
}

// dayOrdinal maps a date onto a monotonic day count anchored at year 1300.
func dayOrdinal(d Date) int {
	days := d.Day
	for i := 1; i < d.Month; i++ {
		days += DaysInMonth(d.Year, i)
	}
	return days + (d.Year-1300)*365 + (d.Year-1300)/4
}

// DiffDays returns the signed day count b - a. Positive means b is after a.
func DiffDays(a, b Date) int {
	return dayOrdinal(b) - dayOrdinal(a)
}

// FromGregorian converts a Gregorian instant to the Shamsi date.
func FromGregorian(t time.Time) Date {
	gy, gm, gd := t.Year(), int(t.Month()), t.Day()

	jy := 0
	if gy > 1600 {
		jy = 979
		gy -= 1600
	} else {
		gy -= 621
	}
	gy2 := gy
	if gm > 2 {
		gy2 = gy + 1
	}
	days := 365*gy + (gy2+3)/4 - (gy2+99)/100 + (gy2+399)/400 - 80 + gd + gregorianDayCount[gm-1]

	jy += 33 * (days / 12053)
	days %= 12053
	jy += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		jy += (days - 1) / 365
		days = (days - 1) % 365
	}
	if days < 186 {
		return Date{Year: jy, Month: 1 + days/31, Day: 1 + days%31}
	}
	return Date{Year: jy, Month: 7 + (days-186)/30, Day: 1 + (days-186)%30}
}

// Today returns the current Shamsi date.
func Today() Date {
	return FromGregorian(time.Now())
}

// FormatForDisplay renders a date as YYYY/MM/DD in Persian digits, the form
// members see in Telegram messages.
func FormatForDisplay(d Date) string {
	return ToPersianDigits(strings.ReplaceAll(d.String(), "-", "/"))
}

// FormatAmount renders an amount in Persian digits with thousands grouping,
// e.g. ۱٬۰۰۰٬۰۰۰.
func FormatAmount(amount decimal.Decimal) string {
	s := amount.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var groups []string
	for len(s) > 3 {
		groups = append([]string{s[len(s)-3:]}, groups...)
		s = s[:len(s)-3]
	}
	groups = append([]string{s}, groups...)
	out := ToPersianDigits(strings.Join(groups, "٬"))
	if neg {
		out = "-" + out
	}
	return out
}
