package calendar

import (
	"time"

	"github.com/example/household-planner/internal/recurrence"
)

// maxSeriesInstances caps materialization so a long series cannot expand
// without bound. Rules without an end date are expanded one year ahead.
const maxSeriesInstances = 730

// defaultHorizon bounds expansion of rules that carry no end date.
const defaultHorizon = 365 * 24 * time.Hour

// Materializer expands a recurring template event into its concrete sibling
// instances. It performs no I/O; persistence of the returned instances is the
// caller's responsibility.
type Materializer struct {
	idGenerator func() string
	now         func() time.Time
}

// NewMaterializer wires the id source and clock used for generated instances.
func NewMaterializer(idGenerator func() string, now func() time.Time) *Materializer {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Materializer{idGenerator: idGenerator, now: now}
}

// GenerateRecurringEvents derives the sibling instances of a recurring
// template, strictly after the template's own date — the template stays the
// first instance of the series and is never duplicated.
//
// Every generated instance copies the template's fields, shifts its start to
// the computed occurrence, keeps the template's duration, and carries the
// shared series id in its recurrence rule. When the template's rule already
// names a series id it is reused; otherwise a fresh one is assigned. Rules
// with an end date are expanded all the way to it, subject only to the
// instance cap; rules without one are expanded one year past the template's
// start.
func (m *Materializer) GenerateRecurringEvents(userID string, template Event) ([]Event, error) {
	if userID == "" {
		return nil, ErrNoCurrentUser
	}
	if template.Recurrence == nil {
		return nil, ErrMissingRecurrence
	}

	rule := *template.Recurrence
	seriesID := rule.SeriesID
	if seriesID == "" {
		seriesID = m.idGenerator()
	}
	rule.SeriesID = seriesID

	horizon := template.Start.Add(defaultHorizon)
	if rule.EndDate != nil {
		horizon = *rule.EndDate
	}

	duration := template.End.Sub(template.Start)
	createdAt := m.now()

	instances := make([]Event, 0)
	current := template.Start
	for len(instances) < maxSeriesInstances {
		next, ok := recurrence.NextOccurrence(template.Start, rule, current)
		if !ok || next.After(horizon) {
			break
		}
		current = next

		instance := template.Clone()
		instance.ID = m.idGenerator()
		instance.Start = next
		instance.End = next.Add(duration)
		instance.Status = EventStatusPending
		instance.CreatedAt = createdAt
		instance.UpdatedAt = createdAt
		instanceRule := rule
		if rule.EndDate != nil {
			end := *rule.EndDate
			instanceRule.EndDate = &end
		}
		instance.Recurrence = &instanceRule

		instances = append(instances, instance)
	}

	return instances, nil
}
