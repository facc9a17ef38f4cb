package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// Fakes embed the interface so only the methods a test touches need bodies.

type fakeEvents struct {
	EventService
	params filter.PublicParams
	page   filter.Page
	ip     string
	result []model.Event
	err    error
}

func (f *fakeEvents) SearchPublishedEvents(_ context.Context, p filter.PublicParams, page filter.Page, ip string) ([]model.Event, error) {
	f.params, f.page, f.ip = p, page, ip
	return f.result, f.err
}

func (f *fakeEvents) GetPublishedEvent(_ context.Context, id int64, ip string) (*model.Event, error) {
	f.ip = ip
	if f.err != nil {
		return nil, f.err
	}
	return &model.Event{ID: id, State: model.EventPublished}, nil
}

type fakeParticipation struct {
	ParticipationService
	userID, eventID int64
	result          *model.StatusUpdateResult
	err             error
}

func (f *fakeParticipation) Submit(_ context.Context, requesterID, eventID int64) (*model.Request, error) {
	f.userID, f.eventID = requesterID, eventID
	if f.err != nil {
		return nil, f.err
	}
	return &model.Request{ID: 9, EventID: eventID, RequesterID: requesterID, Status: model.RequestPending}, nil
}

func (f *fakeParticipation) BulkModerate(_ context.Context, actorID, eventID int64, _ model.StatusUpdateRequest) (*model.StatusUpdateResult, error) {
	f.userID, f.eventID = actorID, eventID
	return f.result, f.err
}

type fakeUsers struct {
	UserService
	deleted int64
	err     error
}

func (f *fakeUsers) DeleteUser(_ context.Context, id int64) error {
	f.deleted = id
	return f.err
}

type fakeCategories struct{ CategoryService }

type fakeComments struct {
	CommentService
	userID, eventID, commentID int64
	text                       string
	page                       filter.Page
	err                        error
}

func (f *fakeComments) CreateComment(_ context.Context, userID, eventID int64, req model.CommentRequest) (*model.Comment, error) {
	f.userID, f.eventID, f.text = userID, eventID, req.Text
	if f.err != nil {
		return nil, f.err
	}
	return &model.Comment{ID: 11, Text: req.Text, EventID: eventID, AuthorID: userID, AuthorName: "alice"}, nil
}

func (f *fakeComments) UpdateComment(_ context.Context, userID, commentID int64, req model.CommentRequest) (*model.Comment, error) {
	f.userID, f.commentID, f.text = userID, commentID, req.Text
	if f.err != nil {
		return nil, f.err
	}
	return &model.Comment{ID: commentID, Text: req.Text, AuthorID: userID}, nil
}

func (f *fakeComments) DeleteUserComment(_ context.Context, userID, commentID int64) error {
	f.userID, f.commentID = userID, commentID
	return f.err
}

func (f *fakeComments) ListEventComments(_ context.Context, eventID int64, page filter.Page) ([]model.Comment, error) {
	f.eventID, f.page = eventID, page
	return nil, f.err
}

func (f *fakeComments) SearchComments(_ context.Context, text string, page filter.Page) ([]model.Comment, error) {
	f.text, f.page = text, page
	return nil, f.err
}

func (f *fakeComments) GetComment(_ context.Context, commentID int64) (*model.Comment, error) {
	f.commentID = commentID
	if f.err != nil {
		return nil, f.err
	}
	return &model.Comment{ID: commentID}, nil
}

type fakeCompilations struct {
	CompilationService
	compID int64
	pinned *bool
	update model.UpdateCompilationRequest
	err    error
}

func (f *fakeCompilations) CreateCompilation(_ context.Context, req model.NewCompilationRequest) (*model.Compilation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Compilation{ID: 1, Title: req.Title, Events: []model.Event{}}, nil
}

func (f *fakeCompilations) UpdateCompilation(_ context.Context, compID int64, req model.UpdateCompilationRequest) (*model.Compilation, error) {
	f.compID, f.update = compID, req
	if f.err != nil {
		return nil, f.err
	}
	return &model.Compilation{ID: compID, Events: []model.Event{}}, nil
}

func (f *fakeCompilations) DeleteCompilation(_ context.Context, compID int64) error {
	f.compID = compID
	return f.err
}

func (f *fakeCompilations) ListCompilations(_ context.Context, pinned *bool, _ filter.Page) ([]model.Compilation, error) {
	f.pinned = pinned
	return nil, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fixture struct {
	events        *fakeEvents
	participation *fakeParticipation
	users         *fakeUsers
	comments      *fakeComments
	compilations  *fakeCompilations
	db            *fakePinger
	router        chi.Router
}

func newFixture() *fixture {
	f := &fixture{
		events:        &fakeEvents{},
		participation: &fakeParticipation{},
		users:         &fakeUsers{},
		comments:      &fakeComments{},
		compilations:  &fakeCompilations{},
		db:            &fakePinger{},
	}
	h := New(Services{
		Events:        f.events,
		Participation: f.participation,
		Users:         f.users,
		Categories:    &fakeCategories{},
		Comments:      f.comments,
		Compilations:  f.compilations,
	}, f.db, zap.NewNop())
	f.router = chi.NewRouter()
	f.router.Use(CORS)
	h.Routes(f.router)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "10.0.0.7:51234"
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestWriteErrorMapsKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
		name   string
	}{
		{apperr.NotFound("event with id=1 was not found"), http.StatusNotFound, "NOT_FOUND", "NOT_FOUND"},
		{apperr.New(apperr.CodeLimitReached, "full"), http.StatusConflict, "LIMIT_REACHED", "CONFLICT"},
		{apperr.InvalidState("published"), http.StatusConflict, "INVALID_STATE", "CONFLICT"},
		{apperr.AccessDenied("not yours"), http.StatusForbidden, "ACCESS_DENIED", "FORBIDDEN"},
		{apperr.Validation("bad"), http.StatusBadRequest, "VALIDATION", "BAD_REQUEST"},
		{apperr.New(apperr.CodeUnavailable, "down"), http.StatusServiceUnavailable, "UNAVAILABLE", "SERVICE_UNAVAILABLE"},
	}
	h := New(Services{}, nil, zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)
			if rec.Code != tt.status {
				t.Fatalf("status=%d, want %d", rec.Code, tt.status)
			}
			body := decodeError(t, rec)
			if body["code"] != tt.code || body["status"] != tt.name {
				t.Fatalf("body=%v", body)
			}
			if body["error"] != tt.err.Error() {
				t.Fatalf("error=%v, want %q", body["error"], tt.err.Error())
			}
			if _, ok := body["incidentId"]; ok {
				t.Fatalf("incidentId on a domain error: %v", body)
			}
			if _, err := time.Parse(model.DateTimeLayout, body["timestamp"].(string)); err != nil {
				t.Fatalf("timestamp: %v", err)
			}
		})
	}
}

func TestWriteErrorHidesInternals(t *testing.T) {
	h := New(Services{}, nil, zap.NewNop())
	rec := httptest.NewRecorder()
	h.writeError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("pq: password authentication failed"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	body := decodeError(t, rec)
	if strings.Contains(body["error"].(string), "password") {
		t.Fatalf("cause leaked: %v", body["error"])
	}
	if id, _ := body["incidentId"].(string); id == "" {
		t.Fatalf("missing incidentId: %v", body)
	}
}

func TestWriteErrorShowsOnlyTheMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"coded with cause", apperr.Wrap(apperr.CodeDuplicateRequest,
			errors.New(`insert request: duplicate (requests_one_active_per_requester)`),
			"user 3 already has a request for event 5")},
		{"coded behind a wrapper", fmt.Errorf("submit: %w", apperr.Wrap(apperr.CodeDuplicateRequest,
			errors.New(`insert request: duplicate (requests_one_active_per_requester)`),
			"user 3 already has a request for event 5"))},
	}
	h := New(Services{}, nil, zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeError(rec, httptest.NewRequest(http.MethodPost, "/x", nil), tt.err)
			body := decodeError(t, rec)
			if rec.Code != http.StatusConflict || body["code"] != "DUPLICATE_REQUEST" {
				t.Fatalf("status=%d body=%v", rec.Code, body)
			}
			if body["error"] != "user 3 already has a request for event 5" {
				t.Fatalf("error=%q", body["error"])
			}
		})
	}
}

func TestSubmitRequest(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/users/3/requests?eventId=5", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if f.participation.userID != 3 || f.participation.eventID != 5 {
		t.Fatalf("user=%d event=%d", f.participation.userID, f.participation.eventID)
	}

	rec = f.do(http.MethodPost, "/users/3/requests", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing eventId: status=%d", rec.Code)
	}

	f.participation.err = apperr.New(apperr.CodeDuplicateRequest, "already requested")
	rec = f.do(http.MethodPost, "/users/3/requests?eventId=5", "")
	if rec.Code != http.StatusConflict || decodeError(t, rec)["code"] != "DUPLICATE_REQUEST" {
		t.Fatalf("duplicate: status=%d", rec.Code)
	}
}

func TestBadPathID(t *testing.T) {
	f := newFixture()
	for _, target := range []string{"/users/abc/requests?eventId=1", "/users/0/requests?eventId=1"} {
		if rec := f.do(http.MethodPost, target, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", target, rec.Code)
		}
	}
}

func TestSearchPublishedEventsParsesQuery(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet,
		"/events?text=jazz&categories=1,2&categories=3&paid=true&onlyAvailable=true"+
			"&rangeStart=2030-01-01%2010:00:00&sort=VIEWS&from=20&size=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty result rendered as %s", rec.Body)
	}

	p := f.events.params
	if p.Text != "jazz" || p.Sort != "VIEWS" || !p.OnlyAvailable {
		t.Fatalf("params=%+v", p)
	}
	if len(p.Categories) != 3 || p.Categories[2] != 3 {
		t.Fatalf("categories=%v", p.Categories)
	}
	if p.Paid == nil || !*p.Paid {
		t.Fatalf("paid=%v", p.Paid)
	}
	want := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	if p.RangeStart == nil || !p.RangeStart.Equal(want) || p.RangeEnd != nil {
		t.Fatalf("range=%v..%v", p.RangeStart, p.RangeEnd)
	}
	if f.events.page.From != 20 || f.events.page.Size != 5 {
		t.Fatalf("page=%+v", f.events.page)
	}
	if f.events.ip != "10.0.0.7" {
		t.Fatalf("ip=%q", f.events.ip)
	}
}

func TestSearchPublishedEventsRejectsBadQuery(t *testing.T) {
	f := newFixture()
	for _, q := range []string{
		"categories=x",
		"paid=maybe",
		"rangeEnd=2030-01-01T10:00:00Z",
		"from=-1",
		"size=0",
	} {
		if rec := f.do(http.MethodGet, "/events?"+q, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", q, rec.Code)
		}
	}
}

func TestGetPublishedEventNotFound(t *testing.T) {
	f := newFixture()
	f.events.err = apperr.NotFound("event with id=4 was not found")
	if rec := f.do(http.MethodGet, "/events/4", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestModerateRequests(t *testing.T) {
	f := newFixture()
	f.participation.result = &model.StatusUpdateResult{
		ConfirmedRequests: []model.Request{{ID: 1, Status: model.RequestConfirmed}},
	}
	rec := f.do(http.MethodPatch, "/users/2/events/8/requests", `{"requestIds":[1],"status":"CONFIRMED"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	var got struct {
		Confirmed []map[string]any `json:"confirmedRequests"`
		Rejected  []map[string]any `json:"rejectedRequests"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Confirmed) != 1 || got.Rejected == nil {
		t.Fatalf("got=%+v", got)
	}
	if f.participation.userID != 2 || f.participation.eventID != 8 {
		t.Fatalf("user=%d event=%d", f.participation.userID, f.participation.eventID)
	}

	f.participation.err = apperr.New(apperr.CodeLimitReached, "participant limit reached")
	rec = f.do(http.MethodPatch, "/users/2/events/8/requests", `{"requestIds":[1,2],"status":"CONFIRMED"}`)
	if rec.Code != http.StatusConflict || decodeError(t, rec)["code"] != "LIMIT_REACHED" {
		t.Fatalf("limit: status=%d", rec.Code)
	}

	rec = f.do(http.MethodPatch, "/users/2/events/8/requests", `{"requestIds":[1],"status":"CONFIRMED","extra":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: status=%d", rec.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodDelete, "/admin/users/6", "")
	if rec.Code != http.StatusNoContent || f.users.deleted != 6 {
		t.Fatalf("status=%d deleted=%d", rec.Code, f.users.deleted)
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture()
	if rec := f.do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthy: status=%d", rec.Code)
	}
	f.db.err = errors.New("connection refused")
	if rec := f.do(http.MethodGet, "/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy: status=%d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodOptions, "/events", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("headers=%v", rec.Header())
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	Logger(zap.NewNop())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestCommentRoutes(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/users/3/comments?eventId=5", `{"text":"Count me in"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status=%d body=%s", rec.Code, rec.Body)
	}
	if f.comments.userID != 3 || f.comments.eventID != 5 || f.comments.text != "Count me in" {
		t.Fatalf("create args: %+v", f.comments)
	}
	var created map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	author, _ := created["author"].(map[string]any)
	if created["eventId"] != float64(5) || author["name"] != "alice" {
		t.Fatalf("created=%v", created)
	}

	if rec := f.do(http.MethodPost, "/users/3/comments", `{"text":"Count me in"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing eventId: status=%d", rec.Code)
	}

	rec = f.do(http.MethodPatch, "/users/3/comments/8", `{"text":"Changed my mind"}`)
	if rec.Code != http.StatusOK || f.comments.commentID != 8 || f.comments.text != "Changed my mind" {
		t.Fatalf("update: status=%d args=%+v", rec.Code, f.comments)
	}

	rec = f.do(http.MethodDelete, "/users/3/comments/8", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status=%d", rec.Code)
	}

	rec = f.do(http.MethodGet, "/events/5/comments?from=10&size=5", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("event comments: status=%d body=%s", rec.Code, rec.Body)
	}
	if f.comments.page.From != 10 || f.comments.page.Size != 5 {
		t.Fatalf("page=%+v", f.comments.page)
	}

	rec = f.do(http.MethodGet, "/admin/comments/search?text=gate", "")
	if rec.Code != http.StatusOK || f.comments.text != "gate" {
		t.Fatalf("search: status=%d text=%q", rec.Code, f.comments.text)
	}

	for _, target := range []string{"/comments/4", "/admin/comments/4"} {
		if rec := f.do(http.MethodGet, target, ""); rec.Code != http.StatusOK || f.comments.commentID != 4 {
			t.Fatalf("%s: status=%d", target, rec.Code)
		}
		f.comments.commentID = 0
	}

	f.comments.err = apperr.AccessDenied("user 3 is not the author of comment 8")
	rec = f.do(http.MethodPatch, "/users/3/comments/8", `{"text":"Hijacked"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign comment: status=%d", rec.Code)
	}
}

func TestCompilationRoutes(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/admin/compilations", `{"title":"Summer","pinned":true,"events":[1,2]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status=%d body=%s", rec.Code, rec.Body)
	}
	var created map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if events, ok := created["events"].([]any); !ok || len(events) != 0 {
		t.Fatalf("events must render as a list: %v", created)
	}

	rec = f.do(http.MethodPatch, "/admin/compilations/4", `{"events":[]}`)
	if rec.Code != http.StatusOK || f.compilations.compID != 4 {
		t.Fatalf("update: status=%d", rec.Code)
	}
	if f.compilations.update.Events == nil || f.compilations.update.Pinned != nil {
		t.Fatalf("update payload=%+v", f.compilations.update)
	}

	rec = f.do(http.MethodPatch, "/admin/compilations/4", `{"pinned":false}`)
	if rec.Code != http.StatusOK || f.compilations.update.Events != nil {
		t.Fatalf("absent events must stay nil: %+v", f.compilations.update)
	}

	if rec := f.do(http.MethodDelete, "/admin/compilations/4", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status=%d", rec.Code)
	}

	tests := []struct {
		target string
		pinned *bool
		status int
	}{
		{"/compilations", nil, http.StatusOK},
		{"/compilations?pinned=true", ptr(true), http.StatusOK},
		{"/compilations?pinned=false&from=0&size=10", ptr(false), http.StatusOK},
		{"/compilations?pinned=maybe", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			f.compilations.pinned = nil
			rec := f.do(http.MethodGet, tt.target, "")
			if rec.Code != tt.status {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
			}
			got := f.compilations.pinned
			if (got == nil) != (tt.pinned == nil) || (got != nil && *got != *tt.pinned) {
				t.Fatalf("pinned=%v, want %v", got, tt.pinned)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
