package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gbun420/visatrack-malta/internal/models"
)

// Fixed reference time so tests are deterministic. Mid-afternoon on
// purpose: day arithmetic must not depend on time-of-day.
var now = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

// dateOffset returns an ISO date n days from the reference time.
func dateOffset(days int) string {
	return now.AddDate(0, 0, days).Format(DateLayout)
}

func visaAt(status string, expiryOffsetDays int) models.Visa {
	return models.Visa{
		ID:         "v-" + dateOffset(expiryOffsetDays),
		VisaType:   "Single Permit",
		IssueDate:  dateOffset(expiryOffsetDays - 365),
		ExpiryDate: dateOffset(expiryOffsetDays),
		Status:     status,
	}
}

func legacyActiveVisaAt(expiryOffsetDays int) models.Visa {
	v := visaAt("pending_renewal", expiryOffsetDays)
	active := "active"
	v.ApplicationStatus = &active
	return v
}

func employeeWith(visas ...models.Visa) models.EmployeeWithVisas {
	return models.EmployeeWithVisas{Visas: visas}
}

// ── Classifier ───────────────────────────────────────────────────

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   string
	}{
		{"yesterday is expired", -1, StatusExpired},
		{"today is expiring soon", 0, StatusExpiringSoon},
		{"89 days out is expiring soon", 89, StatusExpiringSoon},
		{"exactly 90 days out is valid", 90, StatusValid},
		{"far future is valid", 400, StatusValid},
		{"long expired", -200, StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDate(dateOffset(tt.offset), now))
		})
	}
}

func TestClassifyNilExpiryIsNoRecord(t *testing.T) {
	assert.Equal(t, StatusNoRecord, Classify(nil, now))
}

func TestClassifyMalformedDateDegradesToNoRecord(t *testing.T) {
	for _, bad := range []string{"", "not-a-date", "2026-13-45", "15/03/2026"} {
		assert.Equal(t, StatusNoRecord, ClassifyDate(bad, now), "input %q", bad)
		assert.Nil(t, DaysUntilDate(bad, now), "input %q", bad)
	}
}

func TestClassifyIsPure(t *testing.T) {
	expiry := now.AddDate(0, 0, 30)
	first := Classify(&expiry, now)
	second := Classify(&expiry, now)
	assert.Equal(t, first, second)
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	// Expiry at midnight today, "now" late in the evening: still 0 days,
	// not a fractional negative.
	lateEvening := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	expiry := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	days := DaysUntil(&expiry, lateEvening)
	require.NotNil(t, days)
	assert.Equal(t, 0, *days)
	assert.Equal(t, StatusExpiringSoon, Classify(&expiry, lateEvening))
}

func TestDaysUntilSigned(t *testing.T) {
	past := now.AddDate(0, 0, -10)
	future := now.AddDate(0, 0, 45)

	d1 := DaysUntil(&past, now)
	d2 := DaysUntil(&future, now)
	require.NotNil(t, d1)
	require.NotNil(t, d2)
	assert.Equal(t, -10, *d1)
	assert.Equal(t, 45, *d2)
}

// ── Active-Visa Selector ─────────────────────────────────────────

func TestSelectActiveEmptyCollection(t *testing.T) {
	assert.Nil(t, SelectActive(nil, ValidOrLegacyActive))
	assert.Nil(t, SelectActive([]models.Visa{}, StrictValid))
}

func TestSelectActiveStrictSkipsLegacyAndExpired(t *testing.T) {
	visas := []models.Visa{
		visaAt("expired", -50),
		legacyActiveVisaAt(30),
		visaAt("valid", 200),
	}

	got := SelectActive(visas, StrictValid)
	require.NotNil(t, got)
	assert.Equal(t, "valid", got.Status)
	assert.Equal(t, dateOffset(200), got.ExpiryDate)
}

func TestSelectActiveLegacyPredicateAcceptsApplicationStatus(t *testing.T) {
	visas := []models.Visa{
		visaAt("expired", -50),
		legacyActiveVisaAt(30),
	}

	assert.Nil(t, SelectActive(visas, StrictValid))

	got := SelectActive(visas, ValidOrLegacyActive)
	require.NotNil(t, got)
	assert.Equal(t, dateOffset(30), got.ExpiryDate)
}

func TestSelectActiveWidenedPredicateAcceptsExpired(t *testing.T) {
	visas := []models.Visa{visaAt("expired", -50)}

	assert.Nil(t, SelectActive(visas, ValidOrLegacyActive))

	got := SelectActive(visas, ValidOrLegacyActiveOrExpired)
	require.NotNil(t, got)
	assert.Equal(t, "expired", got.Status)
}

// Detail-view scenario: one valid visa 200 days out and one expired visa
// 50 days past. The strict selector must return the valid one and its
// classification must be valid, no matter the collection order.
func TestDetailViewPicksValidOverExpired(t *testing.T) {
	visas := []models.Visa{
		visaAt("expired", -50),
		visaAt("valid", 200),
	}

	got := SelectActive(visas, StrictValid)
	require.NotNil(t, got)
	assert.Equal(t, "valid", got.Status)
	assert.Equal(t, StatusValid, ClassifyDate(got.ExpiryDate, now))
}

func TestSelectActiveFirstMatchWins(t *testing.T) {
	// Two matching visas: insertion order decides, no recency tie-break.
	first := visaAt("valid", 10)
	second := visaAt("valid", 300)

	got := SelectActive([]models.Visa{first, second}, ValidOrLegacyActive)
	require.NotNil(t, got)
	assert.Equal(t, first.ExpiryDate, got.ExpiryDate)
}

// ── Aggregation ──────────────────────────────────────────────────

func TestAggregateEmptyRoster(t *testing.T) {
	s := Aggregate(nil, now)

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0, s.ExpiringSoon)
	assert.Equal(t, 0, s.Expired)
	assert.Equal(t, 0, s.ValidCount)
	assert.Equal(t, 100, s.ComplianceHealth, "empty roster is vacuously healthy")
}

func TestAggregateAllLongDatedIsFullHealth(t *testing.T) {
	roster := []models.EmployeeWithVisas{
		employeeWith(visaAt("valid", 90)),
		employeeWith(visaAt("valid", 180)),
		employeeWith(legacyActiveVisaAt(365)),
	}

	s := Aggregate(roster, now)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 0, s.ExpiringSoon)
	assert.Equal(t, 0, s.Expired)
	assert.Equal(t, 3, s.ValidCount)
	assert.Equal(t, 100, s.ComplianceHealth)
}

// Five employees with visas at -10, 10, 45, 120 days and one with no
// visa at all. The no-record employee counts toward the total but not
// toward valid, so health lands at 60%.
func TestAggregateMixedRoster(t *testing.T) {
	roster := []models.EmployeeWithVisas{
		employeeWith(visaAt("expired", -10)),
		employeeWith(visaAt("valid", 10)),
		employeeWith(visaAt("valid", 45)),
		employeeWith(visaAt("valid", 120)),
		employeeWith(), // no visa on record
	}

	s := Aggregate(roster, now)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.ExpiringSoon)
	assert.Equal(t, 1, s.Expired)
	assert.Equal(t, 3, s.ValidCount)
	assert.Equal(t, 60, s.ComplianceHealth)
}

// An employee whose only visa is explicitly marked expired must still be
// counted as expired even though the display selector would skip it.
func TestAggregateCountsExplicitlyExpiredVisa(t *testing.T) {
	roster := []models.EmployeeWithVisas{
		employeeWith(visaAt("expired", -30)),
	}

	s := Aggregate(roster, now)
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 1, s.Expired)
	assert.Equal(t, 0, s.ValidCount)
	assert.Equal(t, 0, s.ComplianceHealth)
}

func TestAggregateToleratesMalformedExpiry(t *testing.T) {
	bad := visaAt("valid", 0)
	bad.ExpiryDate = "garbage"

	s := Aggregate([]models.EmployeeWithVisas{employeeWith(bad)}, now)
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 0, s.ExpiringSoon)
	assert.Equal(t, 0, s.Expired)
	assert.Equal(t, 0, s.ValidCount)
}

func TestAggregateIsIdempotent(t *testing.T) {
	roster := []models.EmployeeWithVisas{
		employeeWith(visaAt("expired", -10)),
		employeeWith(visaAt("valid", 10)),
		employeeWith(),
	}

	first := Aggregate(roster, now)
	second := Aggregate(roster, now)
	assert.Equal(t, first, second)
}

func TestHealthBand(t *testing.T) {
	assert.Equal(t, "good", HealthBand(100))
	assert.Equal(t, "good", HealthBand(90))
	assert.Equal(t, "warning", HealthBand(89))
	assert.Equal(t, "warning", HealthBand(70))
	assert.Equal(t, "critical", HealthBand(69))
	assert.Equal(t, "critical", HealthBand(0))
}

// ── Ordering ─────────────────────────────────────────────────────

type urgencyItem struct {
	name string
	days *int
}

func days(n int) *int { return &n }

func TestSortByUrgencyNilsLast(t *testing.T) {
	items := []urgencyItem{
		{"none-a", nil},
		{"late", days(120)},
		{"overdue", days(-10)},
		{"none-b", nil},
		{"soon", days(10)},
	}

	SortByUrgency(items, func(it urgencyItem) *int { return it.days })

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.name
	}
	assert.Equal(t, []string{"overdue", "soon", "late", "none-a", "none-b"}, names)
}

func TestSortByUrgencyStableForEqualKeys(t *testing.T) {
	items := []urgencyItem{
		{"first", days(5)},
		{"second", days(5)},
		{"third", days(5)},
	}

	SortByUrgency(items, func(it urgencyItem) *int { return it.days })

	assert.Equal(t, "first", items[0].name)
	assert.Equal(t, "second", items[1].name)
	assert.Equal(t, "third", items[2].name)
}

// ── Alert Presentation ───────────────────────────────────────────

func TestAlertIcon(t *testing.T) {
	assert.Equal(t, "clock", AlertIcon("expiry"))
	assert.Equal(t, "file", AlertIcon("missing_document"))
	assert.Equal(t, "warning", AlertIcon("status_change"))
	assert.Equal(t, "bell", AlertIcon("something_else"))
	assert.Equal(t, "bell", AlertIcon(""))
}
