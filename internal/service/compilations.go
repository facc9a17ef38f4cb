package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

// CompilationService manages curated event collections.
type CompilationService struct {
	store repository.Store
	views ViewCounter
	log   *zap.Logger
}

// NewCompilationService constructs a CompilationService. Events returned
// inside compilations carry their view counts.
func NewCompilationService(store repository.Store, views ViewCounter, log *zap.Logger) *CompilationService {
	return &CompilationService{store: store, views: views, log: log}
}

// CreateCompilation stores a compilation with its events. Every listed event
// must exist; repeated ids are collapsed.
func (s *CompilationService) CreateCompilation(ctx context.Context, req model.NewCompilationRequest) (*model.Compilation, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	c := &model.Compilation{Title: req.Title}
	if req.Pinned != nil {
		c.Pinned = *req.Pinned
	}

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if err := q.CreateCompilation(ctx, c); err != nil {
			return fmt.Errorf("create compilation: %w", err)
		}
		return s.attach(ctx, q, c.ID, req.Events)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("compilation created", zap.Int64("compilation_id", c.ID), zap.Int("events", len(req.Events)))
	return s.GetCompilation(ctx, c.ID)
}

// UpdateCompilation applies the non-nil fields of req.
func (s *CompilationService) UpdateCompilation(ctx context.Context, compID int64, req model.UpdateCompilationRequest) (*model.Compilation, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		c, err := q.GetCompilation(ctx, compID)
		if err != nil {
			return lookupErr(err, "Compilation", compID)
		}
		if req.Title != nil {
			c.Title = *req.Title
		}
		if req.Pinned != nil {
			c.Pinned = *req.Pinned
		}
		if err := q.UpdateCompilation(ctx, c); err != nil {
			return lookupErr(err, "Compilation", compID)
		}
		if req.Events == nil {
			return nil
		}
		return s.attach(ctx, q, compID, req.Events)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCompilation(ctx, compID)
}

// DeleteCompilation removes a compilation; its events are untouched.
func (s *CompilationService) DeleteCompilation(ctx context.Context, compID int64) error {
	if err := s.store.DeleteCompilation(ctx, compID); err != nil {
		return lookupErr(err, "Compilation", compID)
	}
	s.log.Info("compilation deleted", zap.Int64("compilation_id", compID))
	return nil
}

// GetCompilation returns a compilation with its events.
func (s *CompilationService) GetCompilation(ctx context.Context, compID int64) (*model.Compilation, error) {
	c, err := s.store.GetCompilation(ctx, compID)
	if err != nil {
		return nil, lookupErr(err, "Compilation", compID)
	}
	comps := []model.Compilation{*c}
	if err := s.fill(ctx, comps); err != nil {
		return nil, err
	}
	return &comps[0], nil
}

// ListCompilations returns one page of compilations, optionally only pinned
// or only unpinned ones.
func (s *CompilationService) ListCompilations(ctx context.Context, pinned *bool, page filter.Page) ([]model.Compilation, error) {
	comps, err := s.store.ListCompilations(ctx, pinned, page)
	if err != nil {
		return nil, fmt.Errorf("list compilations: %w", err)
	}
	if err := s.fill(ctx, comps); err != nil {
		return nil, err
	}
	return comps, nil
}

func (s *CompilationService) attach(ctx context.Context, q repository.Queries, compID int64, eventIDs []int64) error {
	ids := slices.Clone(eventIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) > 0 {
		found, err := q.ListEventsByID(ctx, ids)
		if err != nil {
			return fmt.Errorf("look up compilation events: %w", err)
		}
		for i, id := range ids {
			if i >= len(found) || found[i].ID != id {
				return apperr.NotFound("Event with id=%d was not found", id)
			}
		}
	}
	if err := q.SetCompilationEvents(ctx, compID, ids); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperr.Wrap(apperr.CodeNotFound, err, "an event of compilation %d no longer exists", compID)
		}
		return fmt.Errorf("set compilation events: %w", err)
	}
	return nil
}

// fill loads the events of every compilation in one query and annotates them
// with views in one stats call.
func (s *CompilationService) fill(ctx context.Context, comps []model.Compilation) error {
	if len(comps) == 0 {
		return nil
	}
	ids := make([]int64, len(comps))
	for i, c := range comps {
		ids[i] = c.ID
	}
	byComp, err := s.store.ListCompilationEvents(ctx, ids)
	if err != nil {
		return fmt.Errorf("list compilation events: %w", err)
	}

	var all []model.Event
	for _, id := range ids {
		all = append(all, byComp[id]...)
	}
	s.views.Annotate(ctx, all)

	offset := 0
	for i := range comps {
		n := len(byComp[comps[i].ID])
		if n == 0 {
			comps[i].Events = []model.Event{}
			continue
		}
		comps[i].Events = all[offset : offset+n : offset+n]
		offset += n
	}
	return nil
}
