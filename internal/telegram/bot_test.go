package telegram

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"500000", "500000", true},
		{"500,000", "500000", true},
		{"۵۰۰۰۰۰", "500000", true},
		{"۵۰۰٬۰۰۰", "500000", true},
		{" 1 200 000 ", "1200000", true},
		{"0", "", false},
		{"-100", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := parseAmount(tc.input)
		if ok != tc.ok {
			t.Errorf("parseAmount(%q): expected ok=%v, got %v", tc.input, tc.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		want, err := decimal.NewFromString(tc.want)
		if err != nil {
			t.Fatalf("Bad expected value %q: %v", tc.want, err)
		}
		if !got.Equal(want) {
			t.Errorf("parseAmount(%q): expected %s, got %s", tc.input, want, got)
		}
	}
}

func TestChatIDParam(t *testing.T) {
	if got := chatIDParam("@sandogh_admins"); got != "@sandogh_admins" {
		t.Errorf("Expected username passed through, got %v", got)
	}
	if got := chatIDParam("123456789"); got != int64(123456789) {
		t.Errorf("Expected numeric id as int64, got %v (%T)", got, got)
	}
	if got := chatIDParam(" -100123 "); got != int64(-100123) {
		t.Errorf("Expected trimmed negative id as int64, got %v (%T)", got, got)
	}
}
