package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "healthfund/pkg/domain-errors"
)

func TestParseConditions(t *testing.T) {
	got, err := ParseConditions(`[{"name":"asthma","severity":"mild"},{"name":"diabetes","severity":"severe"}]`)
	require.NoError(t, err)
	assert.Equal(t, []Condition{{Name: "asthma", Severity: "mild"}, {Name: "diabetes", Severity: "severe"}}, got)

	for _, blank := range []string{"", "  ", "null"} {
		got, err := ParseConditions(blank)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	}

	for _, bad := range []string{"{", `{"name":"asthma"}`, `"asthma"`} {
		_, err := ParseConditions(bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "input %q", bad)
	}
}

func TestParseConditionsAcceptsStrings(t *testing.T) {
	got, err := ParseConditions(`["Diabetes (Severe)", {"name":"asthma","severity":"mild"}, " Hypertension "]`)
	require.NoError(t, err)
	assert.Equal(t, []Condition{
		{Name: "Diabetes (Severe)"},
		{Name: "asthma", Severity: "mild"},
		{Name: "Hypertension"},
	}, got)

	_, err = ParseConditions(`[42]`)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestConditionsJSON(t *testing.T) {
	c := Certification{}
	assert.Equal(t, "[]", c.ConditionsJSON())

	c.Conditions = []Condition{{Name: "asthma", Severity: "mild"}}
	assert.JSONEq(t, `[{"name":"asthma","severity":"mild"}]`, c.ConditionsJSON())
}

func TestParseCertificationDate(t *testing.T) {
	now := time.Date(2025, 5, 4, 6, 0, 0, 0, time.FixedZone("EST", -5*3600))

	got, err := ParseCertificationDate("", now)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(now))

	got, err = ParseCertificationDate("2025-05-01T08:30:00-05:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 1, 13, 30, 0, 0, time.UTC), got)

	got, err = ParseCertificationDate("2025-05-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseCertificationDate("yesterday", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
