package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateTime is a time.Time that travels as DateTimeLayout in JSON.
type DateTime struct {
	time.Time
}

// ParseDateTime parses s in DateTimeLayout as UTC.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q must match %q", s, DateTimeLayout)
	}
	return t, nil
}

// MarshalJSON renders d in DateTimeLayout, UTC.
func (d DateTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.UTC().Format(DateTimeLayout))), nil
}

// UnmarshalJSON parses a DateTimeLayout string.
func (d *DateTime) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

const eventURIPrefix = "/events/"

// EventURI is the path under which views of one event are counted.
func EventURI(id int64) string {
	return eventURIPrefix + strconv.FormatInt(id, 10)
}

// EventIDFromURI parses the numeric id suffix of an event URI.
func EventIDFromURI(uri string) (int64, bool) {
	i := strings.LastIndex(uri, "/")
	if i < 0 || i == len(uri)-1 {
		return 0, false
	}
	id, err := strconv.ParseInt(uri[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
