package filter

import (
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// Sort selects the order of public search results.
type Sort string

// Sort keys accepted by the public search.
const (
	SortNone      Sort = ""
	SortEventDate Sort = "EVENT_DATE"
	SortViews     Sort = "VIEWS"
)

// ParseSort accepts an empty key or one of EVENT_DATE/VIEWS, case-insensitively.
func ParseSort(s string) (Sort, error) {
	switch key := Sort(strings.ToUpper(strings.TrimSpace(s))); key {
	case SortNone, SortEventDate, SortViews:
		return key, nil
	}
	return SortNone, apperr.Validation("sort must be either EVENT_DATE or VIEWS, got %q", s)
}

// DefaultPageSize is the page size used when a caller does not ask for one.
const DefaultPageSize = 10

// Page is an offset window over a result set.
type Page struct {
	From int
	Size int
}

// NewPage validates an offset window. Callers substitute DefaultPageSize
// when no size was given.
func NewPage(from, size int) (Page, error) {
	if from < 0 {
		return Page{}, apperr.Validation("from must not be negative")
	}
	if size <= 0 {
		return Page{}, apperr.Validation("size must be positive")
	}
	return Page{From: from, Size: size}, nil
}

// PublicParams are the criteria accepted by the public event search.
type PublicParams struct {
	Text          string
	Categories    []int64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          string
}

// PublicCriteria turns public search parameters into criteria. Only published
// events match, and past events are excluded unless rangeStart says otherwise.
func PublicCriteria(p PublicParams, now time.Time) (Criteria, Sort, error) {
	sort, err := ParseSort(p.Sort)
	if err != nil {
		return Criteria{}, SortNone, err
	}
	start := p.RangeStart
	if start == nil {
		start = &now
	}
	if p.RangeEnd != nil && start.After(*p.RangeEnd) {
		return Criteria{}, SortNone, apperr.Validation("rangeStart must not be after rangeEnd")
	}
	return Criteria{
		Text:          p.Text,
		Categories:    p.Categories,
		Paid:          p.Paid,
		RangeStart:    start,
		RangeEnd:      p.RangeEnd,
		OnlyAvailable: p.OnlyAvailable,
		PublishedOnly: true,
	}, sort, nil
}

// AdminParams are the criteria accepted by the admin event search.
type AdminParams struct {
	Users      []int64
	States     []string
	Categories []int64
	RangeStart *time.Time
	RangeEnd   *time.Time
}

// AdminCriteria validates the range and state names before any query runs.
func AdminCriteria(p AdminParams) (Criteria, error) {
	if p.RangeStart != nil && p.RangeEnd != nil && p.RangeStart.After(*p.RangeEnd) {
		return Criteria{}, apperr.Validation("rangeStart must not be after rangeEnd")
	}
	var states []model.EventState
	for _, name := range p.States {
		st, ok := model.ParseEventState(name)
		if !ok {
			return Criteria{}, apperr.Validation("unknown state %q", name)
		}
		states = append(states, st)
	}
	return Criteria{
		Initiators: p.Users,
		States:     states,
		Categories: p.Categories,
		RangeStart: p.RangeStart,
		RangeEnd:   p.RangeEnd,
	}, nil
}
