package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTemplate_Substitutes(t *testing.T) {
	out := FormatTemplate("پرداخت {member} به مبلغ {amount}", map[string]string{
		"member": "علی رضایی",
		"amount": "۱٬۰۰۰٬۰۰۰",
	})
	assert.Equal(t, "پرداخت علی رضایی به مبلغ ۱٬۰۰۰٬۰۰۰", out)
}

func TestFormatTemplate_MissingKeyRendersEmpty(t *testing.T) {
	out := FormatTemplate("{member}: {missing}!", map[string]string{"member": "x"})
	assert.Equal(t, "x: !", out)
}

func TestFormatTemplate_NoPlaceholders(t *testing.T) {
	assert.Equal(t, "plain text", FormatTemplate("plain text", nil))
}
