package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", hash)

	assert.True(t, VerifyPassword(hash, "Sup3rSecret"))
	assert.False(t, VerifyPassword(hash, "sup3rsecret"))
	assert.False(t, VerifyPassword(hash, ""))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "Sup3rSecret"))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.Empty(t, ValidatePasswordStrength("Valid1Password"))

	cases := []struct {
		name     string
		password string
		want     string
	}{
		{"too short", "Ab1", "at least 8 characters"},
		{"too long", "A1" + strings.Repeat("a", 130), "at most 128 characters"},
		{"no uppercase", "lowercase1", "uppercase"},
		{"no lowercase", "UPPERCASE1", "lowercase"},
		{"no digit", "NoDigitsHere", "digit"},
		{"common", "Password123", "too common"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reasons := ValidatePasswordStrength(tc.password)
			require.NotEmpty(t, reasons)
			found := false
			for _, r := range reasons {
				if strings.Contains(r, tc.want) {
					found = true
				}
			}
			assert.True(t, found, "expected a reason containing %q, got %v", tc.want, reasons)
		})
	}
}

func TestValidatePasswordStrengthCommonIsCaseInsensitive(t *testing.T) {
	reasons := ValidatePasswordStrength("QWERTY123")
	found := false
	for _, r := range reasons {
		if strings.Contains(r, "too common") {
			found = true
		}
	}
	assert.True(t, found, "got %v", reasons)
}

func TestNormalizeEmail(t *testing.T) {
	got, ok := NormalizeEmail("  Alice@Example.COM ")
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", got)

	for _, bad := range []string{"", "alice", "@example.com", "alice@", "a@b@c.com", "alice@nodot"} {
		_, ok := NormalizeEmail(bad)
		assert.False(t, ok, "expected %q to be rejected", bad)
	}
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***n@example.com", MaskEmail("admin@example.com"))
	assert.Equal(t, "a***@example.com", MaskEmail("ab@example.com"))
	assert.Equal(t, "***", MaskEmail("not-an-email"))
}
