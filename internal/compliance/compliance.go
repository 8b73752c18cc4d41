// Package compliance provides pure functions for visa expiry compliance
// calculations. These functions have ZERO dependencies on HTTP, database,
// or any other infrastructure, making them trivially testable and
// reusable. All functions take "now" as a parameter and never read the
// system clock, so a single aggregation pass sees one consistent time.
package compliance

import (
	"math"
	"sort"
	"time"

	"github.com/Gbun420/visatrack-malta/internal/models"
)

// ── Effective Status Constants ───────────────────────────────────
// Status is always computed from (expiryDate, now). It is never stored
// in the database; the visa's own status column is a separate lifecycle
// field used only by the active-visa selection predicates.

const (
	StatusExpired      = "expired"       // Expiry date is in the past
	StatusExpiringSoon = "expiring_soon" // Expires today or within 90 days
	StatusValid        = "valid"         // Expiry is 90+ days out
	StatusNoRecord     = "no_record"     // No visa / no parseable expiry to check
)

// ExpiringSoonDays is the renewal-window business constant. The window
// is inclusive of 0 and exclusive of 90: a visa expiring exactly 90 days
// out is still valid.
const ExpiringSoonDays = 90

// DateLayout is the calendar-date wire format for all expiry fields.
const DateLayout = "2006-01-02"

// ── Day Arithmetic ───────────────────────────────────────────────

// DaysUntil returns the signed number of whole calendar days from now
// until expiry. Both dates are truncated to midnight before subtracting,
// so an expiry "today" yields 0 regardless of time-of-day. Negative
// means already expired. Nil expiry returns nil.
func DaysUntil(expiry *time.Time, now time.Time) *int {
	if expiry == nil {
		return nil
	}
	days := int(truncateToDay(*expiry).Sub(truncateToDay(now)).Hours() / 24)
	return &days
}

// DaysUntilDate is DaysUntil over an ISO-8601 calendar string. An empty
// or unparseable date returns nil rather than an error so that one bad
// record never prevents processing the rest of a list.
func DaysUntilDate(expiry string, now time.Time) *int {
	t, err := time.Parse(DateLayout, expiry)
	if err != nil {
		return nil
	}
	return DaysUntil(&t, now)
}

// ── Single-Visa Classifier ───────────────────────────────────────

// Classify derives the effective status of a single visa from its
// expiry date. Nil expiry means "nothing to check": no_record is NOT
// the same as expired, and aggregation must keep them distinct.
func Classify(expiry *time.Time, now time.Time) string {
	days := DaysUntil(expiry, now)
	return classifyDays(days)
}

// ClassifyDate is Classify over an ISO-8601 calendar string. Malformed
// input degrades to no_record rather than erroring; see DESIGN.md for
// the open product question on this fallback.
func ClassifyDate(expiry string, now time.Time) string {
	return classifyDays(DaysUntilDate(expiry, now))
}

func classifyDays(days *int) string {
	switch {
	case days == nil:
		return StatusNoRecord
	case *days < 0:
		return StatusExpired
	case *days < ExpiringSoonDays:
		return StatusExpiringSoon
	default:
		return StatusValid
	}
}

// ── Active-Visa Selector ─────────────────────────────────────────

// SelectionPolicy names the predicate used to pick the visa that
// represents an employee's current compliance. Different surfaces use
// slightly different predicates; keeping the policy explicit makes the
// variance visible and testable instead of copy-pasted.
type SelectionPolicy int

const (
	// StrictValid matches only visas whose lifecycle status is "valid".
	// Used by the renewal notifier.
	StrictValid SelectionPolicy = iota

	// ValidOrLegacyActive also matches visas whose legacy
	// application_status is "active". Used by the employee detail view
	// and dashboard aggregation.
	ValidOrLegacyActive

	// ValidOrLegacyActiveOrExpired additionally accepts visas marked
	// "expired", so table views show the lapsed permit instead of a
	// blank cell. Also used when counting expired employees.
	ValidOrLegacyActiveOrExpired
)

// SelectActive scans the employee's visa collection and returns the
// first visa matching the policy, or nil. First match in insertion
// order wins; there is no recency tie-break when several visas match
// (flagged as a latent issue in DESIGN.md).
func SelectActive(visas []models.Visa, policy SelectionPolicy) *models.Visa {
	for i := range visas {
		if matchesPolicy(&visas[i], policy) {
			return &visas[i]
		}
	}
	return nil
}

func matchesPolicy(v *models.Visa, policy SelectionPolicy) bool {
	if v.Status == "valid" {
		return true
	}
	if policy >= ValidOrLegacyActive && v.ApplicationStatus != nil && *v.ApplicationStatus == "active" {
		return true
	}
	if policy == ValidOrLegacyActiveOrExpired && v.Status == "expired" {
		return true
	}
	return false
}

// ── Fleet Aggregation ────────────────────────────────────────────

// Summary holds the tenant-wide compliance counters.
type Summary struct {
	Total            int
	ExpiringSoon     int
	Expired          int
	ValidCount       int
	ComplianceHealth int // 0..100; defined as 100 for an empty roster
}

// Aggregate computes fleet-wide counts over the full roster.
//
// The expiring/valid counters classify the ValidOrLegacyActive selection;
// the expired counter independently re-derives from the widened
// ValidOrLegacyActiveOrExpired selection, so an employee whose only visa
// is explicitly marked expired is still counted even though the display
// selector would not have picked it. Display-active-visa and
// compliance-classification are two independent views over the same visa
// list, not a single shared value.
func Aggregate(employees []models.EmployeeWithVisas, now time.Time) Summary {
	s := Summary{Total: len(employees)}

	for i := range employees {
		visas := employees[i].Visas

		if active := SelectActive(visas, ValidOrLegacyActive); active != nil {
			days := DaysUntilDate(active.ExpiryDate, now)
			if classifyDays(days) == StatusExpiringSoon {
				s.ExpiringSoon++
			}
			if days != nil && *days >= 0 {
				s.ValidCount++
			}
		}

		if widened := SelectActive(visas, ValidOrLegacyActiveOrExpired); widened != nil {
			if ClassifyDate(widened.ExpiryDate, now) == StatusExpired {
				s.Expired++
			}
		}
	}

	if s.Total == 0 {
		s.ComplianceHealth = 100
	} else {
		s.ComplianceHealth = int(math.Round(100 * float64(s.ValidCount) / float64(s.Total)))
	}

	return s
}

// HealthBand maps a compliance health percentage to its display band.
// Presentation only, not a status classification.
func HealthBand(health int) string {
	switch {
	case health >= 90:
		return "good"
	case health >= 70:
		return "warning"
	default:
		return "critical"
	}
}

// ── Urgency Ordering ─────────────────────────────────────────────

// SortByUrgency orders items ascending by days-until-expiry. Items with
// nil days (no active visa / no expiry) sort strictly last regardless of
// direction; nils are mutually equal. Stable for equal keys.
func SortByUrgency[T any](items []T, days func(T) *int) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := days(items[i]), days(items[j])
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
}

// ── Alert Presentation ───────────────────────────────────────────

// alertIcons maps alert types to their presentation icon category.
var alertIcons = map[string]string{
	"expiry":           "clock",
	"missing_document": "file",
	"status_change":    "warning",
}

// AlertIcon returns the icon category for an alert type. Unknown types
// fall back to the generic bell.
func AlertIcon(alertType string) string {
	if icon, ok := alertIcons[alertType]; ok {
		return icon
	}
	return "bell"
}

// ── Internal Helpers ─────────────────────────────────────────────

// truncateToDay strips the time component, keeping only the date.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
