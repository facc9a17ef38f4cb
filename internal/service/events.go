package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/config"
	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

// publicListURI is the hit URI recorded for every public search.
const publicListURI = "/events"

// ViewCounter annotates events with views and records hits.
type ViewCounter interface {
	Annotate(ctx context.Context, events []model.Event)
	AnnotateOne(ctx context.Context, e *model.Event)
	Record(ctx context.Context, uri, ip string)
}

// EventService orchestrates event creation, edits, moderation and search.
type EventService struct {
	store     repository.Store
	views     ViewCounter
	log       *zap.Logger
	now       Clock
	ownerLead time.Duration
	adminLead time.Duration
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(store repository.Store, views ViewCounter, cfg config.EventsConfig, log *zap.Logger) *EventService {
	return &EventService{
		store:     store,
		views:     views,
		log:       log,
		now:       utcNow,
		ownerLead: cfg.OwnerLeadTime,
		adminLead: cfg.AdminLeadTime,
	}
}

// CreateEvent validates the payload and stores a PENDING event owned by userID.
func (s *EventService) CreateEvent(ctx context.Context, userID int64, req model.NewEventRequest) (*model.Event, error) {
	req.Annotation = strings.TrimSpace(req.Annotation)
	req.Description = strings.TrimSpace(req.Description)
	req.Title = strings.TrimSpace(req.Title)
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	now := s.now()
	if err := CheckLeadTime(req.EventDate.Time, now, s.ownerLead); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, lookupErr(err, "User", userID)
	}
	if _, err := s.store.GetCategory(ctx, req.Category); err != nil {
		return nil, lookupErr(err, "Category", req.Category)
	}

	e := &model.Event{
		Annotation:        req.Annotation,
		Description:       req.Description,
		Title:             req.Title,
		CategoryID:        req.Category,
		InitiatorID:       userID,
		Location:          *req.Location,
		EventDate:         req.EventDate.UTC(),
		RequestModeration: true,
		State:             model.EventPending,
		CreatedOn:         now,
	}
	if req.Paid != nil {
		e.Paid = *req.Paid
	}
	if req.ParticipantLimit != nil {
		e.ParticipantLimit = *req.ParticipantLimit
	}
	if req.RequestModeration != nil {
		e.RequestModeration = *req.RequestModeration
	}

	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.Info("event created",
		zap.Int64("event_id", e.ID),
		zap.Int64("initiator_id", userID),
	)
	return e, nil
}

// ListUserEvents returns one page of the events userID initiated.
func (s *EventService) ListUserEvents(ctx context.Context, userID int64, page filter.Page) ([]model.Event, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, lookupErr(err, "User", userID)
	}
	f := filter.Build(filter.Criteria{Initiators: []int64{userID}})
	events, err := s.store.SearchEvents(ctx, f, filter.SortNone, page)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	s.views.Annotate(ctx, events)
	return events, nil
}

// GetUserEvent returns one of userID's own events.
func (s *EventService) GetUserEvent(ctx context.Context, userID, eventID int64) (*model.Event, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, lookupErr(err, "User", userID)
	}
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, lookupErr(err, "Event", eventID)
	}
	if e.InitiatorID != userID {
		return nil, apperr.AccessDenied("user %d is not the initiator of event %d", userID, eventID)
	}
	s.views.AnnotateOne(ctx, e)
	return e, nil
}

// UpdateUserEvent applies an owner edit and, optionally, an owner state action.
func (s *EventService) UpdateUserEvent(ctx context.Context, userID, eventID int64, req model.UpdateEventRequest) (*model.Event, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, lookupErr(err, "User", userID)
	}

	var updated *model.Event
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		e, err := q.LockEvent(ctx, eventID)
		if err != nil {
			return lookupErr(err, "Event", eventID)
		}
		if e.InitiatorID != userID {
			return apperr.AccessDenied("user %d is not the initiator of event %d", userID, eventID)
		}
		if err := s.edit(ctx, q, e, req, ActorInitiator, s.ownerLead); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.views.AnnotateOne(ctx, updated)
	return updated, nil
}

// UpdateAdminEvent applies an administrator edit, publish or reject.
func (s *EventService) UpdateAdminEvent(ctx context.Context, eventID int64, req model.UpdateEventRequest) (*model.Event, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	var updated *model.Event
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		e, err := q.LockEvent(ctx, eventID)
		if err != nil {
			return lookupErr(err, "Event", eventID)
		}
		if err := s.edit(ctx, q, e, req, ActorAdmin, s.adminLead); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.views.AnnotateOne(ctx, updated)
	return updated, nil
}

// edit mutates e according to req and persists it. Only PENDING events can be
// edited; every date change is checked against lead.
func (s *EventService) edit(ctx context.Context, q repository.Queries, e *model.Event, req model.UpdateEventRequest, by Actor, lead time.Duration) error {
	if err := CheckEditable(e); err != nil {
		return err
	}
	now := s.now()

	if req.EventDate != nil {
		if err := CheckLeadTime(req.EventDate.Time, now, lead); err != nil {
			return err
		}
		e.EventDate = req.EventDate.UTC()
	}
	if req.Category != nil {
		if _, err := q.GetCategory(ctx, *req.Category); err != nil {
			return lookupErr(err, "Category", *req.Category)
		}
		e.CategoryID = *req.Category
	}
	if req.Annotation != nil {
		e.Annotation = strings.TrimSpace(*req.Annotation)
	}
	if req.Description != nil {
		e.Description = strings.TrimSpace(*req.Description)
	}
	if req.Title != nil {
		e.Title = strings.TrimSpace(*req.Title)
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.Paid != nil {
		e.Paid = *req.Paid
	}
	if req.ParticipantLimit != nil {
		limit := *req.ParticipantLimit
		if limit != 0 && limit < e.ConfirmedRequests {
			return apperr.Conflict("participant limit %d is below the %d confirmed requests", limit, e.ConfirmedRequests)
		}
		e.ParticipantLimit = limit
	}
	if req.RequestModeration != nil {
		e.RequestModeration = *req.RequestModeration
	}

	from := e.State
	if req.StateAction != nil {
		if err := Transition(e, by, *req.StateAction, now); err != nil {
			return err
		}
	}

	if err := q.UpdateEvent(ctx, e); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return lookupErr(err, "Event", e.ID)
		}
		return fmt.Errorf("update event: %w", err)
	}
	if from != e.State {
		s.log.Info("event state changed",
			zap.Int64("event_id", e.ID),
			zap.String("actor", string(by)),
			zap.String("from", string(from)),
			zap.String("to", string(e.State)),
		)
	}
	return nil
}

// SearchAdminEvents returns one page of events matching the admin criteria.
func (s *EventService) SearchAdminEvents(ctx context.Context, params filter.AdminParams, page filter.Page) ([]model.Event, error) {
	c, err := filter.AdminCriteria(params)
	if err != nil {
		return nil, err
	}
	events, err := s.store.SearchEvents(ctx, filter.Build(c), filter.SortNone, page)
	if err != nil {
		return nil, fmt.Errorf("search admin events: %w", err)
	}
	s.views.Annotate(ctx, events)
	return events, nil
}

// SearchPublishedEvents returns one page of published events and records a
// hit on the public list.
func (s *EventService) SearchPublishedEvents(ctx context.Context, params filter.PublicParams, page filter.Page, ip string) ([]model.Event, error) {
	c, order, err := filter.PublicCriteria(params, s.now())
	if err != nil {
		return nil, err
	}
	s.views.Record(ctx, publicListURI, ip)

	events, err := s.store.SearchEvents(ctx, filter.Build(c), order, page)
	if err != nil {
		return nil, fmt.Errorf("search published events: %w", err)
	}
	s.views.Annotate(ctx, events)
	if order == filter.SortViews {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Views > events[j].Views
		})
	}
	return events, nil
}

// GetPublishedEvent returns a published event and records a hit on it.
// Events in any other state are reported as not found.
func (s *EventService) GetPublishedEvent(ctx context.Context, eventID int64, ip string) (*model.Event, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, lookupErr(err, "Event", eventID)
	}
	if e.State != model.EventPublished {
		return nil, apperr.NotFound("Event with id=%d was not found", eventID)
	}
	s.views.Record(ctx, e.URI(), ip)
	s.views.AnnotateOne(ctx, e)
	return e, nil
}
