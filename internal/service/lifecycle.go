package service

import (
	"slices"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// Actor is who is moving an event through its lifecycle.
type Actor string

const (
	ActorInitiator Actor = "initiator"
	ActorAdmin     Actor = "admin"
)

type transition struct {
	by     Actor
	from   model.EventState
	action model.StateAction
}

// Every permitted lifecycle move. Anything else is refused.
var transitions = map[transition]model.EventState{
	{ActorAdmin, model.EventPending, model.ActionPublishEvent}:     model.EventPublished,
	{ActorAdmin, model.EventPending, model.ActionRejectEvent}:      model.EventCanceled,
	{ActorInitiator, model.EventPending, model.ActionSendToReview}: model.EventPending,
	{ActorInitiator, model.EventPending, model.ActionCancelReview}: model.EventCanceled,
}

var actorActions = map[Actor][]model.StateAction{
	ActorInitiator: {model.ActionSendToReview, model.ActionCancelReview},
	ActorAdmin:     {model.ActionPublishEvent, model.ActionRejectEvent},
}

// CheckEditable fails with InvalidState unless the event is still PENDING.
func CheckEditable(e *model.Event) error {
	if e.State != model.EventPending {
		return apperr.InvalidState("event %d is %s and can no longer be changed", e.ID, e.State)
	}
	return nil
}

// Transition applies action to e on behalf of by. Publishing stamps
// PublishedOn with now.
func Transition(e *model.Event, by Actor, action model.StateAction, now time.Time) error {
	if !slices.Contains(actorActions[by], action) {
		return apperr.Validation("unknown state action %q", action)
	}

	next, ok := transitions[transition{by, e.State, action}]
	if !ok {
		return apperr.InvalidState("cannot %s event %d in state %s", action, e.ID, e.State)
	}
	e.State = next
	if next == model.EventPublished {
		published := now
		e.PublishedOn = &published
	}
	return nil
}

// CheckLeadTime fails unless eventDate is at least lead after now.
func CheckLeadTime(eventDate, now time.Time, lead time.Duration) error {
	if eventDate.Before(now.Add(lead)) {
		return apperr.Validation("event date %s must be at least %s after the current time",
			eventDate.UTC().Format(model.DateTimeLayout), lead)
	}
	return nil
}
