package recurrence

import (
	"fmt"
	"math"
	"time"
)

// Kind identifies the unit a recurrence rule steps in.
type Kind string

const (
	// KindDaily steps in whole days.
	KindDaily Kind = "daily"
	// KindWeekly steps in whole weeks.
	KindWeekly Kind = "weekly"
	// KindMonthly steps in calendar months.
	KindMonthly Kind = "monthly"
	// KindYearly steps in calendar years.
	KindYearly Kind = "yearly"
)

// MaxInterval bounds the step count accepted by ValidateRule.
const MaxInterval = 365

// Rule describes how a template event repeats.
//
// EndDate, when set, is the last instant an occurrence may fall on: a
// computed occurrence is kept while it is at or before EndDate and discarded
// once it passes it. SeriesID links materialized instances back to their
// series and is ignored by the pure computations in this package.
type Rule struct {
	Kind     Kind
	Interval int
	EndDate  *time.Time
	SeriesID string
}

// FieldError tags a single rule violation with the field that caused it.
type FieldError struct {
	Field   string
	Message string
}

// ValidationResult reports every violation found in a rule. The engine never
// returns Go errors for malformed rules; callers render FieldErrors directly.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// ValidateRule checks a rule against the reference instant now. All
// violations are reported, not just the first.
func ValidateRule(rule Rule, now time.Time) ValidationResult {
	result := ValidationResult{Valid: true}

	switch rule.Kind {
	case KindDaily, KindWeekly, KindMonthly, KindYearly:
	default:
		result.addError("kind", fmt.Sprintf("unknown recurrence kind %q", string(rule.Kind)))
	}

	if rule.Interval < 1 || rule.Interval > MaxInterval {
		result.addError("interval", fmt.Sprintf("interval must be between 1 and %d", MaxInterval))
	}

	if rule.EndDate != nil && !rule.EndDate.After(now) {
		result.addError("end_date", "end date must be in the future")
	}

	return result
}

func (r *ValidationResult) addError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// NextOccurrence computes the occurrence one interval-sized step after from.
// The second return value is false when the rule yields no further
// occurrence, either because the rule is malformed or because the candidate
// falls past the rule's end date.
//
// Monthly and yearly steps use time.AddDate, so out-of-range days normalize
// forward (Jan 31 stepped by one month lands on Mar 2 or Mar 3). Daily and
// weekly steps are pure day arithmetic and keep the time of day.
func NextOccurrence(anchor time.Time, rule Rule, from time.Time) (time.Time, bool) {
	if rule.Interval < 1 {
		return time.Time{}, false
	}
	if from.IsZero() {
		from = anchor
	}

	var candidate time.Time
	switch rule.Kind {
	case KindDaily:
		candidate = from.AddDate(0, 0, rule.Interval)
	case KindWeekly:
		candidate = from.AddDate(0, 0, 7*rule.Interval)
	case KindMonthly:
		candidate = from.AddDate(0, rule.Interval, 0)
	case KindYearly:
		candidate = from.AddDate(rule.Interval, 0, 0)
	default:
		return time.Time{}, false
	}

	if rule.EndDate != nil && candidate.After(*rule.EndDate) {
		return time.Time{}, false
	}

	return candidate, true
}

// OccurrencesInRange enumerates the occurrence dates of a rule anchored at
// anchor that fall inside [rangeStart, rangeEnd], ascending. The anchor
// itself is included when it lies inside the range. A positive maxCount caps
// the result length so open-ended rules stay bounded; zero or negative means
// no cap beyond the range itself.
func OccurrencesInRange(anchor time.Time, rule Rule, rangeStart, rangeEnd time.Time, maxCount int) []time.Time {
	if rangeEnd.Before(rangeStart) {
		return nil
	}

	occurrences := make([]time.Time, 0)
	current := anchor

	for {
		if current.After(rangeEnd) {
			break
		}
		if !current.Before(rangeStart) {
			occurrences = append(occurrences, current)
			if maxCount > 0 && len(occurrences) >= maxCount {
				break
			}
		}

		next, ok := NextOccurrence(anchor, rule, current)
		if !ok || !next.After(current) {
			break
		}
		current = next
	}

	return occurrences
}

// TotalOccurrences counts the occurrences of a rule anchored at anchor,
// including the anchor itself. When the rule carries no end date and no
// maxCalculation cap is supplied the series is open ended and finite is
// false. Otherwise the count runs up to the tighter of the two bounds.
func TotalOccurrences(anchor time.Time, rule Rule, maxCalculation *time.Time) (count int, finite bool) {
	if rule.EndDate == nil && maxCalculation == nil {
		return 0, false
	}

	bound := time.Time{}
	if rule.EndDate != nil {
		bound = *rule.EndDate
	}
	if maxCalculation != nil && (bound.IsZero() || maxCalculation.Before(bound)) {
		bound = *maxCalculation
	}

	if anchor.After(bound) {
		return 0, true
	}

	count = 1
	current := anchor
	for {
		next, ok := NextOccurrence(anchor, rule, current)
		if !ok || next.After(bound) || !next.After(current) {
			break
		}
		count++
		current = next
	}

	return count, true
}

// IsInRecurrence reports whether candidate lands on an occurrence of the rule
// anchored at anchor. The elapsed unit count between the two dates must be an
// exact non-negative multiple of the interval; monthly rules additionally
// require the same day of month and yearly rules the same month and day, so a
// monthly rule anchored on the 31st never matches a 30-day month.
func IsInRecurrence(candidate, anchor time.Time, rule Rule) bool {
	if rule.Interval < 1 || candidate.Before(anchor) {
		return false
	}
	if rule.EndDate != nil && candidate.After(*rule.EndDate) {
		return false
	}

	switch rule.Kind {
	case KindDaily:
		days := daysBetween(anchor, candidate)
		return days >= 0 && days%rule.Interval == 0
	case KindWeekly:
		days := daysBetween(anchor, candidate)
		return days >= 0 && days%7 == 0 && (days/7)%rule.Interval == 0
	case KindMonthly:
		if candidate.Day() != anchor.Day() {
			return false
		}
		months := monthsBetween(anchor, candidate)
		return months >= 0 && months%rule.Interval == 0
	case KindYearly:
		if candidate.Month() != anchor.Month() || candidate.Day() != anchor.Day() {
			return false
		}
		years := candidate.Year() - anchor.Year()
		return years >= 0 && years%rule.Interval == 0
	default:
		return false
	}
}

// daysBetween counts whole calendar days from a to b, ignoring the time of
// day. Midnights are compared in a's location so DST transitions do not skew
// the count.
func daysBetween(a, b time.Time) int {
	loc := a.Location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, loc)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, loc)
	return int(math.Round(end.Sub(start).Hours() / 24))
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
