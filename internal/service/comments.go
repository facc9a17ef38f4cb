package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

// CommentService manages comments on published events. Only the author may
// read privately, edit or delete a comment; admins may read and delete any.
type CommentService struct {
	store repository.Store
	log   *zap.Logger
	now   Clock
}

// NewCommentService constructs a CommentService.
func NewCommentService(store repository.Store, log *zap.Logger) *CommentService {
	return &CommentService{store: store, log: log, now: utcNow}
}

// CreateComment adds a comment by userID under a published event.
func (s *CommentService) CreateComment(ctx context.Context, userID, eventID int64, req model.CommentRequest) (*model.Comment, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, lookupErr(err, "User", userID)
	}
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, lookupErr(err, "Event", eventID)
	}
	if e.State != model.EventPublished {
		return nil, apperr.Conflict("event %d is not published", eventID)
	}

	c := &model.Comment{
		Text:     req.Text,
		EventID:  eventID,
		AuthorID: userID,
		Created:  s.now(),
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.log.Info("comment created",
		zap.Int64("comment_id", c.ID),
		zap.Int64("event_id", eventID),
		zap.Int64("author_id", userID),
	)
	return c, nil
}

// UpdateComment replaces the text of one of userID's comments.
func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID int64, req model.CommentRequest) (*model.Comment, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	if _, err := s.authored(ctx, userID, commentID); err != nil {
		return nil, err
	}
	c, err := s.store.UpdateCommentText(ctx, commentID, req.Text)
	if err != nil {
		return nil, lookupErr(err, "Comment", commentID)
	}
	return c, nil
}

// GetUserComment returns one of userID's comments.
func (s *CommentService) GetUserComment(ctx context.Context, userID, commentID int64) (*model.Comment, error) {
	return s.authored(ctx, userID, commentID)
}

// DeleteUserComment removes one of userID's comments.
func (s *CommentService) DeleteUserComment(ctx context.Context, userID, commentID int64) error {
	if _, err := s.authored(ctx, userID, commentID); err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return lookupErr(err, "Comment", commentID)
	}
	s.log.Info("comment deleted by author", zap.Int64("comment_id", commentID), zap.Int64("author_id", userID))
	return nil
}

// ListUserComments returns userID's comments, newest first.
func (s *CommentService) ListUserComments(ctx context.Context, userID int64, page filter.Page) ([]model.Comment, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, lookupErr(err, "User", userID)
	}
	return s.list(ctx, repository.CommentFilter{AuthorID: userID}, page)
}

// ListEventComments returns the comments under a published event, newest
// first. Unpublished events are reported as missing.
func (s *CommentService) ListEventComments(ctx context.Context, eventID int64, page filter.Page) ([]model.Comment, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, lookupErr(err, "Event", eventID)
	}
	if e.State != model.EventPublished {
		return nil, apperr.NotFound("Event with id=%d was not found", eventID)
	}
	return s.list(ctx, repository.CommentFilter{EventID: eventID}, page)
}

// SearchComments finds comments containing text, case-insensitively.
func (s *CommentService) SearchComments(ctx context.Context, text string, page filter.Page) ([]model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("search text must not be blank")
	}
	return s.list(ctx, repository.CommentFilter{Text: text}, page)
}

// GetComment returns any comment.
func (s *CommentService) GetComment(ctx context.Context, commentID int64) (*model.Comment, error) {
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, lookupErr(err, "Comment", commentID)
	}
	return c, nil
}

// DeleteComment removes any comment.
func (s *CommentService) DeleteComment(ctx context.Context, commentID int64) error {
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return lookupErr(err, "Comment", commentID)
	}
	s.log.Info("comment deleted by admin", zap.Int64("comment_id", commentID))
	return nil
}

func (s *CommentService) authored(ctx context.Context, userID, commentID int64) (*model.Comment, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, lookupErr(err, "User", userID)
	}
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, lookupErr(err, "Comment", commentID)
	}
	if c.AuthorID != userID {
		return nil, apperr.AccessDenied("user %d is not the author of comment %d", userID, commentID)
	}
	return c, nil
}

func (s *CommentService) list(ctx context.Context, f repository.CommentFilter, page filter.Page) ([]model.Comment, error) {
	comments, err := s.store.ListComments(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
