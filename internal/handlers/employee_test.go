package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gbun420/visatrack-malta/internal/compliance"
	"github.com/Gbun420/visatrack-malta/internal/models"
)

func TestDecorateEmployeeWithActiveVisa(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, 30).Format(compliance.DateLayout)

	e := models.EmployeeWithVisas{
		Visas: []models.Visa{
			{ID: "v1", VisaType: "Single Permit", ExpiryDate: expiry, Status: "valid"},
		},
	}

	d := decorateEmployee(e, compliance.ValidOrLegacyActive, now)

	assert.Equal(t, compliance.StatusExpiringSoon, d.EffectiveStatus)
	require.NotNil(t, d.DaysUntilExpiry)
	assert.Equal(t, 30, *d.DaysUntilExpiry)
	require.NotNil(t, d.ActiveVisaID)
	assert.Equal(t, "v1", *d.ActiveVisaID)
	assert.Equal(t, expiry, *d.ActiveVisaExpiry)
}

func TestDecorateEmployeeWithoutVisas(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	d := decorateEmployee(models.EmployeeWithVisas{Visas: []models.Visa{}},
		compliance.ValidOrLegacyActive, now)

	assert.Equal(t, compliance.StatusNoRecord, d.EffectiveStatus)
	assert.Nil(t, d.DaysUntilExpiry)
	assert.Nil(t, d.ActiveVisaID)
}

func TestDecorateEmployeePolicyWidening(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	pastExpiry := now.AddDate(0, 0, -30).Format(compliance.DateLayout)

	e := models.EmployeeWithVisas{
		Visas: []models.Visa{
			{ID: "v1", ExpiryDate: pastExpiry, Status: "expired"},
		},
	}

	narrow := decorateEmployee(e, compliance.ValidOrLegacyActive, now)
	assert.Equal(t, compliance.StatusNoRecord, narrow.EffectiveStatus,
		"detail selection skips lapsed lifecycle records")

	wide := decorateEmployee(e, compliance.ValidOrLegacyActiveOrExpired, now)
	assert.Equal(t, compliance.StatusExpired, wide.EffectiveStatus,
		"table selection surfaces the lapsed permit")
}

func TestMatchesComputedFilter(t *testing.T) {
	assert.True(t, matchesComputedFilter(compliance.StatusValid, ""))
	assert.True(t, matchesComputedFilter(compliance.StatusExpiringSoon, "expiring"))
	assert.False(t, matchesComputedFilter(compliance.StatusValid, "expiring"))
	assert.True(t, matchesComputedFilter(compliance.StatusExpired, "expired"))
	assert.True(t, matchesComputedFilter(compliance.StatusValid, "valid"))
	assert.True(t, matchesComputedFilter(compliance.StatusValid, "unknown-filter"))
}
