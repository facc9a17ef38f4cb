package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// SubmitRequest handles POST /users/{userId}/requests?eventId=
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	eventID, err := queryID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := h.participation.Submit(r.Context(), userID, eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// ListUserRequests handles GET /users/{userId}/requests
func (h *Handler) ListUserRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reqs, err := h.participation.ListUserRequests(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(reqs))
}

// CancelRequest handles PATCH /users/{userId}/requests/{requestId}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	requestID, err := pathID(r, "requestId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := h.participation.Cancel(r.Context(), userID, requestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ListEventRequests handles GET /users/{userId}/events/{eventId}/requests
func (h *Handler) ListEventRequests(w http.ResponseWriter, r *http.Request) {
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
	reqs, err := h.participation.ListEventRequests(r.Context(), userID, eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(reqs))
}

// ModerateRequests handles PATCH /users/{userId}/events/{eventId}/requests
//
// When the limit is reached mid-batch the confirmations made before it stay
// committed and the client gets the LIMIT_REACHED error.
func (h *Handler) ModerateRequests(w http.ResponseWriter, r *http.Request) {
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
	var body model.StatusUpdateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.participation.BulkModerate(r.Context(), userID, eventID, body)
	if err != nil {
		if errors.Is(err, apperr.ErrLimitReached) && result != nil {
			h.log.Info("moderation stopped at participant limit",
				zap.Int64("event_id", eventID),
				zap.Int("confirmed", len(result.ConfirmedRequests)),
			)
		}
		h.writeError(w, r, err)
		return
	}
	result.ConfirmedRequests = listOf(result.ConfirmedRequests)
	result.RejectedRequests = listOf(result.RejectedRequests)
	writeJSON(w, http.StatusOK, result)
}
