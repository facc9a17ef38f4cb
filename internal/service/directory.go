package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

// UserService manages registered users.
type UserService struct {
	store repository.Store
	log   *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(store repository.Store, log *zap.Logger) *UserService {
	return &UserService{store: store, log: log}
}

// CreateUser registers a user. Emails are unique, compared case-insensitively.
func (s *UserService) CreateUser(ctx context.Context, req model.NewUserRequest) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	u, err := s.store.CreateUser(ctx, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("email %s is already registered", req.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user created", zap.Int64("user_id", u.ID))
	return u, nil
}

// ListUsers returns users by id, or one page of all users when ids is empty.
func (s *UserService) ListUsers(ctx context.Context, ids []int64, page filter.Page) ([]model.User, error) {
	users, err := s.store.ListUsers(ctx, ids, page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user together with its events and requests. Places
// held by the user's confirmed requests in other users' events are given
// back in the same transaction, before the cascade removes the requests.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	released := 0
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.LockUser(ctx, id); err != nil {
			return lookupErr(err, "User", id)
		}
		reqs, err := q.ListRequestsByRequester(ctx, id)
		if err != nil {
			return fmt.Errorf("list user requests: %w", err)
		}

		var eventIDs []int64
		for _, r := range reqs {
			if r.Status.IsActive() && !slices.Contains(eventIDs, r.EventID) {
				eventIDs = append(eventIDs, r.EventID)
			}
		}
		slices.Sort(eventIDs)
		for _, eventID := range eventIDs {
			if _, err := q.LockEvent(ctx, eventID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("lock event %d: %w", eventID, err)
			}
		}

		// A pending request may have been confirmed before the event lock was won.
		reqs, err = q.ListRequestsByRequester(ctx, id)
		if err != nil {
			return fmt.Errorf("list user requests: %w", err)
		}
		confirmed := map[int64]int{}
		for _, r := range reqs {
			if r.Status == model.RequestConfirmed {
				confirmed[r.EventID]++
			}
		}
		for _, eventID := range slices.Sorted(maps.Keys(confirmed)) {
			n := confirmed[eventID]
			if _, err := q.AdjustConfirmed(ctx, eventID, -n); err != nil {
				return fmt.Errorf("release %d places of event %d: %w", n, eventID, err)
			}
			released += n
		}

		if err := q.DeleteUser(ctx, id); err != nil {
			return lookupErr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Int64("user_id", id), zap.Int("released_places", released))
	return nil
}

// CategoryService manages event categories.
type CategoryService struct {
	store repository.Store
	log   *zap.Logger
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(store repository.Store, log *zap.Logger) *CategoryService {
	return &CategoryService{store: store, log: log}
}

// CreateCategory adds a category. Names are unique.
func (s *CategoryService) CreateCategory(ctx context.Context, req model.CategoryRequest) (*model.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	c, err := s.store.CreateCategory(ctx, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("category %q already exists", req.Name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// UpdateCategory renames a category.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, req model.CategoryRequest) (*model.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	c, err := s.store.UpdateCategory(ctx, id, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("category %q already exists", req.Name)
		}
		return nil, lookupErr(err, "Category", id)
	}
	return c, nil
}

// DeleteCategory removes a category no event refers to.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return lookupErr(err, "Category", id)
	}
	used, err := s.store.CategoryInUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return apperr.Conflict("category %d is used by existing events", id)
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperr.Conflict("category %d is used by existing events", id)
		}
		return lookupErr(err, "Category", id)
	}
	s.log.Info("category deleted", zap.Int64("category_id", id))
	return nil
}

// GetCategory returns one category.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Category", id)
	}
	return c, nil
}

// ListCategories returns one page of categories.
func (s *CategoryService) ListCategories(ctx context.Context, page filter.Page) ([]model.Category, error) {
	cats, err := s.store.ListCategories(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}
