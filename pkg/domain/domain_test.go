package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "civreg/pkg/domain-errors"
)

func TestParseNationalID(t *testing.T) {
	t.Run("accepts 12 digits", func(t *testing.T) {
		id, err := ParseNationalID("123456789012")
		require.NoError(t, err)
		assert.Equal(t, NationalID("123456789012"), id)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		id, err := ParseNationalID("  123456789012 ")
		require.NoError(t, err)
		assert.Equal(t, NationalID("123456789012"), id)
	})

	t.Run("rejects wrong length and non-digits", func(t *testing.T) {
		for _, input := range []string{"", "12345678901", "1234567890123", "12345678901a", "'; DROP TABLE identities;--"} {
			_, err := ParseNationalID(input)
			require.Error(t, err, "input %q", input)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		}
	})
}

func TestParsePhone(t *testing.T) {
	_, err := ParsePhone("98765432")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	p, err := ParsePhone("9876543210")
	require.NoError(t, err)
	assert.Equal(t, Phone("9876543210"), p)
}

func TestParseGender(t *testing.T) {
	g, err := ParseGender("m")
	require.NoError(t, err)
	assert.Equal(t, GenderMale, g)

	_, err = ParseGender("X")
	require.Error(t, err)
}

func TestValidateBirthDate(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	t.Run("rejects one day in the future", func(t *testing.T) {
		err := ValidateBirthDate(now.AddDate(0, 0, 1), now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects 121 years ago", func(t *testing.T) {
		err := ValidateBirthDate(now.AddDate(-121, 0, 0), now)
		require.Error(t, err)
	})

	t.Run("accepts 119 years ago", func(t *testing.T) {
		require.NoError(t, ValidateBirthDate(now.AddDate(-119, 0, 0), now))
	})

	t.Run("accepts today", func(t *testing.T) {
		require.NoError(t, ValidateBirthDate(now, now))
	})
}

func TestParseTaxCode(t *testing.T) {
	t.Run("accepts and upper-cases the canonical format", func(t *testing.T) {
		code, err := ParseTaxCode("abcde1234f")
		require.NoError(t, err)
		assert.Equal(t, TaxCode("ABCDE1234F"), code)
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		for _, input := range []string{"", "ABCD1234F", "ABCDE12345", "ABCDE1234FX", "1BCDE1234F"} {
			_, err := ParseTaxCode(input)
			require.Error(t, err, "input %q", input)
		}
	})
}

func TestValidateIssueDate(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	require.Error(t, ValidateIssueDate(now.AddDate(0, 0, 1), now))
	require.Error(t, ValidateIssueDate(time.Date(1949, 12, 31, 0, 0, 0, 0, time.UTC), now))
	require.NoError(t, ValidateIssueDate(TaxIssueFloor, now))
	require.NoError(t, ValidateIssueDate(now, now))
}

func TestParseElectoralCode(t *testing.T) {
	code, err := ParseElectoralCode("voter001")
	require.NoError(t, err)
	assert.Equal(t, ElectoralCode("VOTER001"), code)

	for _, input := range []string{"VOTER01", "VOTER0001", "ELECT001", ""} {
		_, err := ParseElectoralCode(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestParseBranchCode(t *testing.T) {
	code, err := ParseBranchCode("sbin0001234")
	require.NoError(t, err)
	assert.Equal(t, BranchCode("SBIN0001234"), code)

	for _, input := range []string{"SBIN1001234", "SBI00001234", "SBIN000123", "SBIN00012345"} {
		_, err := ParseBranchCode(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestParseSimNumber(t *testing.T) {
	sim, err := ParseSimNumber("9000000001")
	require.NoError(t, err)
	assert.Equal(t, SimNumber("9000000001"), sim)

	_, err = ParseSimNumber("90000a0001")
	require.Error(t, err)
}

func TestParseRegistrationType(t *testing.T) {
	for _, valid := range []string{"City", "Village", "Rural", "Urban", "Other"} {
		_, err := ParseRegistrationType(valid)
		require.NoError(t, err, "input %q", valid)
	}
	_, err := ParseRegistrationType("Metro")
	require.Error(t, err)
}

func TestRequestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
}
