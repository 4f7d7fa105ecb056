package shamsi

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_SlashYearFirst(t *testing.T) {
	assert.Equal(t, "1402-01-15", Normalize("1402/1/15"))
}

func TestNormalize_SlashYearLast(t *testing.T) {
	assert.Equal(t, "1402-01-15", Normalize("01/15/1402"))
}

func TestNormalize_PersianDigits(t *testing.T) {
	assert.Equal(t, "1402-01-15", Normalize("۱۴۰۲/۰۱/۱۵"))
}

func TestNormalize_DashInput(t *testing.T) {
	assert.Equal(t, "1402-01-15", Normalize("1402-01-15"))
}

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
}

func TestParse_Valid(t *testing.T) {
	d, ok := Parse("1402-01-15")
	assert.True(t, ok)
	assert.Equal(t, Date{Year: 1402, Month: 1, Day: 15}, d)
}

func TestParse_ClampsOversizedDay(t *testing.T) {
	d, ok := Parse("1402-01-45")
	assert.True(t, ok)
	assert.Equal(t, 31, d.Day)
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{"", "not-a-date", "1402-01", "1402-13-01", "1402-00-10"}
	for _, c := range cases {
		_, ok := Parse(c)
		assert.False(t, ok, "input %q", c)
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, DaysInMonth(1402, 1))
	assert.Equal(t, 31, DaysInMonth(1402, 6))
	assert.Equal(t, 30, DaysInMonth(1402, 7))
	assert.Equal(t, 30, DaysInMonth(1402, 11))
	// 1402 % 4 == 2: not leap. 1403 % 4 == 3: leap.
	assert.Equal(t, 29, DaysInMonth(1402, 12))
	assert.Equal(t, 30, DaysInMonth(1403, 12))
}

func TestAddMonths_ZeroIsIdentity(t *testing.T) {
	d, ok := Parse("1402-04-31")
	assert.True(t, ok)
	assert.Equal(t, Normalize("1402-04-31"), AddMonths(d, 0).String())
}

func TestAddMonths_ClampsIntoShorterMonth(t *testing.T) {
	d := Date{Year: 1402, Month: 6, Day: 31}

	// Month 7 has 30 days.
	assert.Equal(t, Date{Year: 1402, Month: 7, Day: 30}, AddMonths(d, 1))

	// Esfand 1402 has 29 days.
	assert.Equal(t, Date{Year: 1402, Month: 12, Day: 29}, AddMonths(d, 6))
}

func TestAddMonths_CarriesYear(t *testing.T) {
	d := Date{Year: 1402, Month: 11, Day: 10}
	assert.Equal(t, Date{Year: 1403, Month: 3, Day: 10}, AddMonths(d, 4))
}

func TestAddMonths_NegativeIsNoop(t *testing.T) {
	d := Date{Year: 1402, Month: 1, Day: 15}
	assert.Equal(t, d, AddMonths(d, -1))
}

func TestDiffDays(t *testing.T) {
	a := Date{Year: 1402, Month: 1, Day: 15}
	b := Date{Year: 1402, Month: 2, Day: 15}
	assert.Equal(t, 31, DiffDays(a, b))
	assert.Equal(t, -31, DiffDays(b, a))
	assert.Equal(t, 0, DiffDays(a, a))
}

func TestDiffDays_AcrossLeapYearEnd(t *testing.T) {
	// Esfand 1403 is a 30-day month.
	a := Date{Year: 1403, Month: 12, Day: 29}
	b := Date{Year: 1404, Month: 1, Day: 1}
	assert.Equal(t, 2, DiffDays(a, b))
}

func TestFromGregorian(t *testing.T) {
	cases := []struct {
		gregorian string
		want      Date
	}{
		{"2023-04-04", Date{Year: 1402, Month: 1, Day: 15}},
		{"2024-03-20", Date{Year: 1403, Month: 1, Day: 1}},
		{"2026-08-28", Date{Year: 1405, Month: 6, Day: 6}},
	}
	for _, c := range cases {
		g, err := time.Parse("2006-01-02", c.gregorian)
		assert.NoError(t, err)
		assert.Equal(t, c.want, FromGregorian(g), "gregorian %s", c.gregorian)
	}
}

func TestFormatForDisplay(t *testing.T) {
	assert.Equal(t, "۱۴۰۲/۰۱/۱۵", FormatForDisplay(Date{Year: 1402, Month: 1, Day: 15}))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "۱٬۰۰۰٬۰۰۰", FormatAmount(decimal.NewFromInt(1000000)))
	assert.Equal(t, "۰", FormatAmount(decimal.Zero))
	assert.Equal(t, "۱۲۳", FormatAmount(decimal.NewFromInt(123)))
}
