package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("maria.santos@example.com"))
	assert.True(t, ValidateEmail("hr+mrf@company.org"))

	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@tld"))
	assert.False(t, ValidateEmail("@example.com"))
}

func TestValidatePassword(t *testing.T) {
	ok, _ := ValidatePassword("hunter2hunter2")
	assert.False(t, ok, "digits required")

	ok, _ = ValidatePassword("12345678")
	assert.False(t, ok, "letters required")

	ok, _ = ValidatePassword("short1")
	assert.False(t, ok, "minimum length")

	ok, msg := ValidatePassword("workflow2026")
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "MRF-2026", SanitizeInput("  MRF-2026  "))
	assert.Equal(t, "clean", SanitizeInput("clean\x00"))
}
