package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/config"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

// ParticipationService runs the participation request workflow. Every
// operation that touches an event's confirmed counter locks the event row
// first, so concurrent requests against one event are serialised.
type ParticipationService struct {
	store               repository.Store
	log                 *zap.Logger
	now                 Clock
	releaseSeatOnCancel bool
}

// NewParticipationService constructs a ParticipationService.
func NewParticipationService(store repository.Store, cfg config.ParticipationConfig, log *zap.Logger) *ParticipationService {
	return &ParticipationService{
		store:               store,
		log:                 log,
		now:                 utcNow,
		releaseSeatOnCancel: cfg.ReleaseSeatOnCancel,
	}
}

// Submit creates a participation request of requesterID for eventID. The
// request is confirmed straight away when the event needs no moderation, and
// the confirmed counter moves in the same transaction as the insert.
func (s *ParticipationService) Submit(ctx context.Context, requesterID, eventID int64) (*model.Request, error) {
	var created *model.Request
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.GetUser(ctx, requesterID); err != nil {
			return lookupErr(err, "User", requesterID)
		}
		e, err := q.LockEvent(ctx, eventID)
		if err != nil {
			return lookupErr(err, "Event", eventID)
		}

		if e.InitiatorID == requesterID {
			return apperr.Conflict("the initiator of event %d cannot request to participate in it", eventID)
		}
		if e.State != model.EventPublished {
			return apperr.Conflict("event %d is not published", eventID)
		}
		active, err := q.HasActiveRequest(ctx, eventID, requesterID)
		if err != nil {
			return err
		}
		if active {
			return apperr.New(apperr.CodeDuplicateRequest, "user %d already has a request for event %d", requesterID, eventID)
		}
		if e.IsFull() {
			return apperr.New(apperr.CodeLimitReached, "event %d has reached its participant limit", eventID)
		}

		r := &model.Request{
			EventID:     eventID,
			RequesterID: requesterID,
			Status:      model.RequestPending,
			Created:     s.now(),
		}
		if e.AutoConfirms() {
			r.Status = model.RequestConfirmed
		}
		if err := q.CreateRequest(ctx, r); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Wrap(apperr.CodeDuplicateRequest, err, "user %d already has a request for event %d", requesterID, eventID)
			}
			return fmt.Errorf("create request: %w", err)
		}
		if r.Status == model.RequestConfirmed {
			if err := s.adjust(ctx, q, eventID, 1); err != nil {
				return err
			}
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("participation request submitted",
		zap.Int64("request_id", created.ID),
		zap.Int64("event_id", eventID),
		zap.Int64("requester_id", requesterID),
		zap.String("status", string(created.Status)),
	)
	return created, nil
}

// BulkModerate confirms or rejects pending requests of an event on behalf of
// its initiator. The batch is validated up front; a non-pending request fails
// it before anything changes. Confirmations stop at the participant limit:
// those made before it is hit are kept, and the call returns them together
// with a LIMIT_REACHED error.
func (s *ParticipationService) BulkModerate(ctx context.Context, actorID, eventID int64, req model.StatusUpdateRequest) (*model.StatusUpdateResult, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, actorID); err != nil {
		return nil, lookupErr(err, "User", actorID)
	}

	result := &model.StatusUpdateResult{
		ConfirmedRequests: []model.Request{},
		RejectedRequests:  []model.Request{},
	}
	var limitErr error

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		e, err := q.LockEvent(ctx, eventID)
		if err != nil {
			return lookupErr(err, "Event", eventID)
		}
		if e.InitiatorID != actorID {
			return apperr.AccessDenied("user %d is not the initiator of event %d", actorID, eventID)
		}
		if e.AutoConfirms() {
			return apperr.New(apperr.CodeModerationNotRequired, "event %d does not require request moderation", eventID)
		}

		locked, err := q.LockRequests(ctx, req.RequestIDs)
		if err != nil {
			return err
		}
		byID := make(map[int64]model.Request, len(locked))
		for _, r := range locked {
			byID[r.ID] = r
		}
		batch := make([]model.Request, 0, len(req.RequestIDs))
		seen := make(map[int64]bool, len(req.RequestIDs))
		for _, id := range req.RequestIDs {
			if seen[id] {
				return apperr.Validation("request %d is listed more than once", id)
			}
			seen[id] = true
			r, ok := byID[id]
			if !ok || r.EventID != eventID {
				return apperr.NotFound("Request with id=%d was not found for event %d", id, eventID)
			}
			if r.Status != model.RequestPending {
				return apperr.InvalidState("request %d is %s; only PENDING requests can be moderated", id, r.Status)
			}
			batch = append(batch, r)
		}

		available := e.Available()
		for _, r := range batch {
			switch req.Status {
			case model.RequestConfirmed:
				if available <= 0 {
					limitErr = apperr.New(apperr.CodeLimitReached, "event %d has reached its participant limit", eventID)
					return nil
				}
				if err := q.UpdateRequestStatus(ctx, r.ID, model.RequestConfirmed); err != nil {
					return fmt.Errorf("confirm request %d: %w", r.ID, err)
				}
				if err := s.adjust(ctx, q, eventID, 1); err != nil {
					return err
				}
				available--
				r.Status = model.RequestConfirmed
				result.ConfirmedRequests = append(result.ConfirmedRequests, r)
			case model.RequestRejected:
				if err := q.UpdateRequestStatus(ctx, r.ID, model.RequestRejected); err != nil {
					return fmt.Errorf("reject request %d: %w", r.ID, err)
				}
				r.Status = model.RequestRejected
				result.RejectedRequests = append(result.RejectedRequests, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("participation requests moderated",
		zap.Int64("event_id", eventID),
		zap.String("target", string(req.Status)),
		zap.Int("confirmed", len(result.ConfirmedRequests)),
		zap.Int("rejected", len(result.RejectedRequests)),
		zap.Bool("limit_reached", limitErr != nil),
	)
	return result, limitErr
}

// Cancel withdraws a request on behalf of its requester. Canceling an already
// canceled request is a no-op. When configured, a confirmed place is
// released back to the event.
func (s *ParticipationService) Cancel(ctx context.Context, requesterID, requestID int64) (*model.Request, error) {
	if _, err := s.store.GetUser(ctx, requesterID); err != nil {
		return nil, lookupErr(err, "User", requesterID)
	}

	var canceled *model.Request
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		r, err := q.GetRequest(ctx, requestID)
		if err != nil {
			return lookupErr(err, "Request", requestID)
		}
		if r.RequesterID != requesterID {
			return apperr.Conflict("user %d does not own request %d", requesterID, requestID)
		}

		// Lock order matches Submit and BulkModerate: event row, then request.
		if _, err := q.LockEvent(ctx, r.EventID); err != nil {
			return lookupErr(err, "Event", r.EventID)
		}
		locked, err := q.LockRequests(ctx, []int64{requestID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return lookupErr(repository.ErrNotFound, "Request", requestID)
		}
		r = &locked[0]
		if r.Status == model.RequestCanceled {
			canceled = r
			return nil
		}

		if err := q.UpdateRequestStatus(ctx, r.ID, model.RequestCanceled); err != nil {
			return fmt.Errorf("cancel request %d: %w", r.ID, err)
		}
		if s.releaseSeatOnCancel && r.Status == model.RequestConfirmed {
			if err := s.adjust(ctx, q, r.EventID, -1); err != nil {
				return err
			}
		}
		r.Status = model.RequestCanceled
		canceled = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("participation request canceled",
		zap.Int64("request_id", requestID),
		zap.Int64("requester_id", requesterID),
	)
	return canceled, nil
}

// ListUserRequests returns every request userID has submitted.
func (s *ParticipationService) ListUserRequests(ctx context.Context, userID int64) ([]model.Request, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, lookupErr(err, "User", userID)
	}
	reqs, err := s.store.ListRequestsByRequester(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user requests: %w", err)
	}
	return reqs, nil
}

// ListEventRequests returns the requests made for one of userID's events.
func (s *ParticipationService) ListEventRequests(ctx context.Context, userID, eventID int64) ([]model.Request, error) {
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
	reqs, err := s.store.ListRequestsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event requests: %w", err)
	}
	return reqs, nil
}

func (s *ParticipationService) adjust(ctx context.Context, q repository.Queries, eventID int64, delta int) error {
	if _, err := q.AdjustConfirmed(ctx, eventID, delta); err != nil {
		if errors.Is(err, repository.ErrCounterBound) {
			return apperr.Wrap(apperr.CodeLimitReached, err, "event %d has reached its participant limit", eventID)
		}
		return fmt.Errorf("adjust confirmed requests: %w", err)
	}
	return nil
}
