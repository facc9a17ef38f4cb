// Package filter composes optional event search criteria into a single
// predicate. Every absent criterion contributes no restriction; present
// criteria are combined with AND. The same predicate is available as a SQL
// fragment for the event store and as an in-memory matcher.
package filter

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// Criteria holds independently optional search criteria. Zero values mean
// "not present".
type Criteria struct {
	Text          string
	Categories    []int64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Initiators    []int64
	States        []model.EventState
	PublishedOnly bool
}

// args collects positional parameters and hands out pgx placeholders.
type args struct {
	values []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

type predicate struct {
	sql   func(a *args) string
	match func(e *model.Event) bool
}

// Filter is the conjunction of the predicates built from a Criteria.
type Filter struct {
	preds []predicate
}

// Build folds every present criterion of c into a Filter.
func Build(c Criteria) Filter {
	var f Filter
	for _, opt := range []func(Criteria) (predicate, bool){
		publishedOnly,
		text,
		categories,
		paid,
		rangeStart,
		rangeEnd,
		onlyAvailable,
		initiators,
		states,
	} {
		if p, ok := opt(c); ok {
			f.preds = append(f.preds, p)
		}
	}
	return f
}

// Len returns the number of active predicates.
func (f Filter) Len() int {
	return len(f.preds)
}

// Where renders the filter as a SQL boolean expression over the events table
// with $1..$n placeholders and their arguments. An empty filter renders TRUE.
func (f Filter) Where() (string, []any) {
	if len(f.preds) == 0 {
		return "TRUE", nil
	}
	a := &args{}
	parts := make([]string, 0, len(f.preds))
	for _, p := range f.preds {
		parts = append(parts, p.sql(a))
	}
	return strings.Join(parts, " AND "), a.values
}

// Match reports whether e satisfies every predicate.
func (f Filter) Match(e *model.Event) bool {
	for _, p := range f.preds {
		if !p.match(e) {
			return false
		}
	}
	return true
}

// Apply returns the events of in that satisfy the filter, preserving order.
func (f Filter) Apply(in []model.Event) []model.Event {
	out := make([]model.Event, 0, len(in))
	for i := range in {
		if f.Match(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

func publishedOnly(c Criteria) (predicate, bool) {
	if !c.PublishedOnly {
		return predicate{}, false
	}
	return predicate{
		sql: func(a *args) string {
			return "state = " + a.add(string(model.EventPublished))
		},
		match: func(e *model.Event) bool { return e.State == model.EventPublished },
	}, true
}

func text(c Criteria) (predicate, bool) {
	needle := strings.TrimSpace(c.Text)
	if needle == "" {
		return predicate{}, false
	}
	lower := strings.ToLower(needle)
	return predicate{
		sql: func(a *args) string {
			p := a.add(ContainsPattern(needle))
			return "(annotation ILIKE " + p + " OR description ILIKE " + p + ")"
		},
		match: func(e *model.Event) bool {
			return strings.Contains(strings.ToLower(e.Annotation), lower) ||
				strings.Contains(strings.ToLower(e.Description), lower)
		},
	}, true
}

func categories(c Criteria) (predicate, bool) {
	if len(c.Categories) == 0 {
		return predicate{}, false
	}
	ids := c.Categories
	return predicate{
		sql: func(a *args) string {
			return "category_id = ANY(" + a.add(ids) + ")"
		},
		match: func(e *model.Event) bool { return slices.Contains(ids, e.CategoryID) },
	}, true
}

func paid(c Criteria) (predicate, bool) {
	if c.Paid == nil {
		return predicate{}, false
	}
	want := *c.Paid
	return predicate{
		sql: func(a *args) string {
			return "paid = " + a.add(want)
		},
		match: func(e *model.Event) bool { return e.Paid == want },
	}, true
}

func rangeStart(c Criteria) (predicate, bool) {
	if c.RangeStart == nil {
		return predicate{}, false
	}
	start := *c.RangeStart
	return predicate{
		sql: func(a *args) string {
			return "event_date >= " + a.add(start)
		},
		match: func(e *model.Event) bool { return !e.EventDate.Before(start) },
	}, true
}

func rangeEnd(c Criteria) (predicate, bool) {
	if c.RangeEnd == nil {
		return predicate{}, false
	}
	end := *c.RangeEnd
	return predicate{
		sql: func(a *args) string {
			return "event_date <= " + a.add(end)
		},
		match: func(e *model.Event) bool { return !e.EventDate.After(end) },
	}, true
}

func onlyAvailable(c Criteria) (predicate, bool) {
	if !c.OnlyAvailable {
		return predicate{}, false
	}
	return predicate{
		sql: func(*args) string {
			return "(participant_limit = 0 OR confirmed_requests < participant_limit)"
		},
		match: func(e *model.Event) bool { return !e.IsFull() },
	}, true
}

func initiators(c Criteria) (predicate, bool) {
	if len(c.Initiators) == 0 {
		return predicate{}, false
	}
	ids := c.Initiators
	return predicate{
		sql: func(a *args) string {
			return "initiator_id = ANY(" + a.add(ids) + ")"
		},
		match: func(e *model.Event) bool { return slices.Contains(ids, e.InitiatorID) },
	}, true
}

func states(c Criteria) (predicate, bool) {
	if len(c.States) == 0 {
		return predicate{}, false
	}
	names := make([]string, len(c.States))
	for i, s := range c.States {
		names[i] = string(s)
	}
	want := c.States
	return predicate{
		sql: func(a *args) string {
			return "state = ANY(" + a.add(names) + ")"
		},
		match: func(e *model.Event) bool { return slices.Contains(want, e.State) },
	}, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns s into an ILIKE pattern matching any text that
// contains s literally.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
