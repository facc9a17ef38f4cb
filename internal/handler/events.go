package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// CreateEvent handles POST /users/{userId}/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req model.NewEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	event, err := h.events.CreateEvent(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListUserEvents handles GET /users/{userId}/events
func (h *Handler) ListUserEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := queryPage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	events, err := h.events.ListUserEvents(r.Context(), userID, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(events))
}

// GetUserEvent handles GET /users/{userId}/events/{eventId}
func (h *Handler) GetUserEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	eventID, err := pathID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	event, err := h.events.GetUserEvent(r.Context(), userID, eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateUserEvent handles PATCH /users/{userId}/events/{eventId}
func (h *Handler) UpdateUserEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	eventID, err := pathID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req model.UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	event, err := h.events.UpdateUserEvent(r.Context(), userID, eventID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// SearchAdminEvents handles GET /admin/events
func (h *Handler) SearchAdminEvents(w http.ResponseWriter, r *http.Request) {
	var (
		params filter.AdminParams
		err    error
	)
	if params.Users, err = queryIDs(r, "users"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if params.Categories, err = queryIDs(r, "categories"); err != nil {
		h.writeError(w, r, err)
		return
	}
	params.States = queryValues(r, "states")
	if params.RangeStart, err = queryTime(r, "rangeStart"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if params.RangeEnd, err = queryTime(r, "rangeEnd"); err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := queryPage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	events, err := h.events.SearchAdminEvents(r.Context(), params, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(events))
}

// UpdateAdminEvent handles PATCH /admin/events/{eventId}
func (h *Handler) UpdateAdminEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req model.UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	event, err := h.events.UpdateAdminEvent(r.Context(), eventID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// SearchPublishedEvents handles GET /events
func (h *Handler) SearchPublishedEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := filter.PublicParams{
		Text: q.Get("text"),
		Sort: q.Get("sort"),
	}
	var err error
	if params.Categories, err = queryIDs(r, "categories"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if params.Paid, err = queryBool(r, "paid"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if params.RangeStart, err = queryTime(r, "rangeStart"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if params.RangeEnd, err = queryTime(r, "rangeEnd"); err != nil {
		h.writeError(w, r, err)
		return
	}
	onlyAvailable, err := queryBool(r, "onlyAvailable")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	params.OnlyAvailable = onlyAvailable != nil && *onlyAvailable
	page, err := queryPage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	events, err := h.events.SearchPublishedEvents(r.Context(), params, page, clientIP(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(events))
}

// GetPublishedEvent handles GET /events/{eventId}
func (h *Handler) GetPublishedEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	event, err := h.events.GetPublishedEvent(r.Context(), eventID, clientIP(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// listOf keeps empty results rendering as [] rather than null.
func listOf[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
