// Package model defines the core domain types for the event publishing and
// participation system.
package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateTimeLayout is the wire format for every timestamp the API accepts or returns.
const DateTimeLayout = "2006-01-02 15:04:05"

// EventState is the lifecycle state of an event.
type EventState string

// Event lifecycle states.
const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

// ParseEventState parses a state name case-insensitively.
func ParseEventState(s string) (EventState, bool) {
	switch st := EventState(strings.ToUpper(strings.TrimSpace(s))); st {
	case EventPending, EventPublished, EventCanceled:
		return st, true
	}
	return "", false
}

// RequestStatus is the status of a participation request.
type RequestStatus string

// Participation request statuses.
const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

// ActiveRequestStatuses hold a place in an event; a requester may have at most
// one request in one of these statuses per event.
var ActiveRequestStatuses = []RequestStatus{RequestPending, RequestConfirmed}

// IsActive reports whether the status blocks a new submission for the same event.
func (s RequestStatus) IsActive() bool {
	return s == RequestPending || s == RequestConfirmed
}

// StateAction is an edit-time instruction to move an event through its lifecycle.
type StateAction string

// State actions. Owners send to review or cancel; admins publish or reject.
const (
	ActionSendToReview StateAction = "SEND_TO_REVIEW"
	ActionCancelReview StateAction = "CANCEL_REVIEW"
	ActionPublishEvent StateAction = "PUBLISH_EVENT"
	ActionRejectEvent  StateAction = "REJECT_EVENT"
)

// Location is the venue of an event. It is replaced as a whole on edit.
type Location struct {
	Lat decimal.Decimal `json:"lat"`
	Lon decimal.Decimal `json:"lon"`
}

// Event is a publishable activity with a capacity-limited registration workflow.
type Event struct {
	ID                int64
	Annotation        string
	Description       string
	Title             string
	CategoryID        int64
	InitiatorID       int64
	Location          Location
	EventDate         time.Time
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
	ConfirmedRequests int
	State             EventState
	CreatedOn         time.Time
	PublishedOn       *time.Time

	// Views is derived per read from the hit-counting service and never persisted.
	Views int64
}

// Unlimited reports whether the event accepts any number of participants.
func (e *Event) Unlimited() bool {
	return e.ParticipantLimit == 0
}

// IsFull returns true when a limited event has no confirmed places left.
func (e *Event) IsFull() bool {
	return !e.Unlimited() && e.ConfirmedRequests >= e.ParticipantLimit
}

// Available returns the number of places left. It is meaningless for
// unlimited events.
func (e *Event) Available() int {
	return e.ParticipantLimit - e.ConfirmedRequests
}

// AutoConfirms reports whether new requests skip moderation.
func (e *Event) AutoConfirms() bool {
	return !e.RequestModeration || e.Unlimited()
}

// URI is the path under which the event's views are counted.
func (e *Event) URI() string {
	return EventURI(e.ID)
}

type eventJSON struct {
	ID                int64      `json:"id"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	Title             string     `json:"title"`
	Category          int64      `json:"category"`
	Initiator         int64      `json:"initiator"`
	Location          Location   `json:"location"`
	EventDate         DateTime   `json:"eventDate"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participantLimit"`
	RequestModeration bool       `json:"requestModeration"`
	ConfirmedRequests int        `json:"confirmedRequests"`
	State             EventState `json:"state"`
	CreatedOn         DateTime   `json:"createdOn"`
	PublishedOn       *DateTime  `json:"publishedOn,omitempty"`
	Views             int64      `json:"views"`
}

// MarshalJSON renders the event with API timestamps.
func (e Event) MarshalJSON() ([]byte, error) {
	out := eventJSON{
		ID:                e.ID,
		Annotation:        e.Annotation,
		Description:       e.Description,
		Title:             e.Title,
		Category:          e.CategoryID,
		Initiator:         e.InitiatorID,
		Location:          e.Location,
		EventDate:         DateTime{e.EventDate},
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		RequestModeration: e.RequestModeration,
		ConfirmedRequests: e.ConfirmedRequests,
		State:             e.State,
		CreatedOn:         DateTime{e.CreatedOn},
		Views:             e.Views,
	}
	if e.PublishedOn != nil {
		out.PublishedOn = &DateTime{*e.PublishedOn}
	}
	return json.Marshal(out)
}

// Request is a user's application to attend an event.
type Request struct {
	ID          int64         `json:"id"`
	EventID     int64         `json:"event"`
	RequesterID int64         `json:"requester"`
	Status      RequestStatus `json:"status"`
	Created     time.Time     `json:"-"`
}

// MarshalJSON renders the request with API timestamps.
func (r Request) MarshalJSON() ([]byte, error) {
	type plain Request
	return json.Marshal(struct {
		plain
		Created DateTime `json:"created"`
	}{plain(r), DateTime{r.Created}})
}

// User is a registered participant or organizer.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Category groups events.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewUserRequest is the payload for registering a user.
type NewUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=250"`
	Email string `json:"email" validate:"required,email,min=6,max=254"`
}

// CategoryRequest is the payload for creating or renaming a category.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

// NewEventRequest is the payload for creating a new event.
type NewEventRequest struct {
	Annotation        string    `json:"annotation" validate:"required,min=20,max=2000"`
	Category          int64     `json:"category" validate:"required,gt=0"`
	Description       string    `json:"description" validate:"required,min=20,max=7000"`
	EventDate         *DateTime `json:"eventDate" validate:"required"`
	Location          *Location `json:"location" validate:"required"`
	Paid              *bool     `json:"paid"`
	ParticipantLimit  *int      `json:"participantLimit" validate:"omitnil,gte=0"`
	RequestModeration *bool     `json:"requestModeration"`
	Title             string    `json:"title" validate:"required,min=3,max=120"`
}

// UpdateEventRequest is the payload for owner and admin edits. Nil fields are
// left unchanged.
type UpdateEventRequest struct {
	Annotation        *string      `json:"annotation" validate:"omitnil,min=20,max=2000"`
	Category          *int64       `json:"category" validate:"omitnil,gt=0"`
	Description       *string      `json:"description" validate:"omitnil,min=20,max=7000"`
	EventDate         *DateTime    `json:"eventDate"`
	Location          *Location    `json:"location"`
	Paid              *bool        `json:"paid"`
	ParticipantLimit  *int         `json:"participantLimit" validate:"omitnil,gte=0"`
	RequestModeration *bool        `json:"requestModeration"`
	StateAction       *StateAction `json:"stateAction"`
	Title             *string      `json:"title" validate:"omitnil,min=3,max=120"`
}

// StatusUpdateRequest is the payload for bulk moderation of requests.
type StatusUpdateRequest struct {
	RequestIDs []int64       `json:"requestIds" validate:"required,min=1"`
	Status     RequestStatus `json:"status" validate:"required,oneof=CONFIRMED REJECTED"`
}

// StatusUpdateResult partitions moderated requests by the status they ended in.
type StatusUpdateResult struct {
	ConfirmedRequests []Request `json:"confirmedRequests"`
	RejectedRequests  []Request `json:"rejectedRequests"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Reason     string   `json:"reason"`
	Code       string   `json:"code"`
	Status     string   `json:"status"`
	Timestamp  DateTime `json:"timestamp"`
	IncidentID string   `json:"incidentId,omitempty"`
}
