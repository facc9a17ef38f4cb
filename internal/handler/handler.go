// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// EventService is the event side of the service layer.
type EventService interface {
	CreateEvent(ctx context.Context, userID int64, req model.NewEventRequest) (*model.Event, error)
	ListUserEvents(ctx context.Context, userID int64, page filter.Page) ([]model.Event, error)
	GetUserEvent(ctx context.Context, userID, eventID int64) (*model.Event, error)
	UpdateUserEvent(ctx context.Context, userID, eventID int64, req model.UpdateEventRequest) (*model.Event, error)
	UpdateAdminEvent(ctx context.Context, eventID int64, req model.UpdateEventRequest) (*model.Event, error)
	SearchAdminEvents(ctx context.Context, params filter.AdminParams, page filter.Page) ([]model.Event, error)
	SearchPublishedEvents(ctx context.Context, params filter.PublicParams, page filter.Page, ip string) ([]model.Event, error)
	GetPublishedEvent(ctx context.Context, eventID int64, ip string) (*model.Event, error)
}

// ParticipationService is the participation request workflow.
type ParticipationService interface {
	Submit(ctx context.Context, requesterID, eventID int64) (*model.Request, error)
	BulkModerate(ctx context.Context, actorID, eventID int64, req model.StatusUpdateRequest) (*model.StatusUpdateResult, error)
	Cancel(ctx context.Context, requesterID, requestID int64) (*model.Request, error)
	ListUserRequests(ctx context.Context, userID int64) ([]model.Request, error)
	ListEventRequests(ctx context.Context, userID, eventID int64) ([]model.Request, error)
}

// UserService is user administration.
type UserService interface {
	CreateUser(ctx context.Context, req model.NewUserRequest) (*model.User, error)
	ListUsers(ctx context.Context, ids []int64, page filter.Page) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// CategoryService is category administration and lookup.
type CategoryService interface {
	CreateCategory(ctx context.Context, req model.CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, req model.CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context, page filter.Page) ([]model.Category, error)
}

// CommentService manages comments on published events.
type CommentService interface {
	CreateComment(ctx context.Context, userID, eventID int64, req model.CommentRequest) (*model.Comment, error)
	UpdateComment(ctx context.Context, userID, commentID int64, req model.CommentRequest) (*model.Comment, error)
	GetUserComment(ctx context.Context, userID, commentID int64) (*model.Comment, error)
	DeleteUserComment(ctx context.Context, userID, commentID int64) error
	ListUserComments(ctx context.Context, userID int64, page filter.Page) ([]model.Comment, error)
	ListEventComments(ctx context.Context, eventID int64, page filter.Page) ([]model.Comment, error)
	SearchComments(ctx context.Context, text string, page filter.Page) ([]model.Comment, error)
	GetComment(ctx context.Context, commentID int64) (*model.Comment, error)
	DeleteComment(ctx context.Context, commentID int64) error
}

// CompilationService manages curated event collections.
type CompilationService interface {
	CreateCompilation(ctx context.Context, req model.NewCompilationRequest) (*model.Compilation, error)
	UpdateCompilation(ctx context.Context, compID int64, req model.UpdateCompilationRequest) (*model.Compilation, error)
	DeleteCompilation(ctx context.Context, compID int64) error
	GetCompilation(ctx context.Context, compID int64) (*model.Compilation, error)
	ListCompilations(ctx context.Context, pinned *bool, page filter.Page) ([]model.Compilation, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the service layer the handlers call into.
type Services struct {
	Events        EventService
	Participation ParticipationService
	Users         UserService
	Categories    CategoryService
	Comments      CommentService
	Compilations  CompilationService
}

// Handler holds all HTTP handlers of the API.
type Handler struct {
	events        EventService
	participation ParticipationService
	users         UserService
	categories    CategoryService
	comments      CommentService
	compilations  CompilationService
	db            Pinger
	log           *zap.Logger
}

// New constructs a Handler.
func New(svc Services, db Pinger, log *zap.Logger) *Handler {
	return &Handler{
		events:        svc.Events,
		participation: svc.Participation,
		users:         svc.Users,
		categories:    svc.Categories,
		comments:      svc.Comments,
		compilations:  svc.Compilations,
		db:            db,
		log:           log,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindConflict:     http.StatusConflict,
	apperr.KindAccessDenied: http.StatusForbidden,
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindUnavailable:  http.StatusServiceUnavailable,
	apperr.KindInternal:     http.StatusInternalServerError,
}

var kindReason = map[apperr.Kind]string{
	apperr.KindNotFound:     "The required object was not found.",
	apperr.KindConflict:     "For the requested operation the conditions are not met.",
	apperr.KindAccessDenied: "Access to the requested object is denied.",
	apperr.KindValidation:   "Incorrectly made request.",
	apperr.KindUnavailable:  "A required dependency is unavailable.",
	apperr.KindInternal:     "Internal server error.",
}

// writeError renders err as the standard error envelope. Clients see only the
// message of a coded error; causes stay in the log. Internal errors get a
// generic message and an incident id that is logged with the cause.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kindStatus[kind]
	resp := model.ErrorResponse{
		Reason:    kindReason[kind],
		Code:      string(apperr.CodeOf(err)),
		Status:    statusName(status),
		Timestamp: model.DateTime{Time: time.Now().UTC()},
	}

	var coded *apperr.Error
	if kind == apperr.KindInternal || !errors.As(err, &coded) {
		resp.IncidentID = uuid.NewString()
		resp.Error = "an unexpected error occurred"
		h.log.Error("request failed",
			zap.String("incident_id", resp.IncidentID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	} else {
		resp.Error = coded.Message
		h.log.Debug("request rejected",
			zap.String("code", resp.Code),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, resp)
}

// statusName renders 409 as CONFLICT, 400 as BAD_REQUEST and so on.
func statusName(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health check: database unreachable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
