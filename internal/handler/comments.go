package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// CreateComment handles POST /users/{userId}/comments?eventId=
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
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
	var req model.CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.comments.CreateComment(r.Context(), userID, eventID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListUserComments handles GET /users/{userId}/comments?from=&size=
func (h *Handler) ListUserComments(w http.ResponseWriter, r *http.Request) {
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
	comments, err := h.comments.ListUserComments(r.Context(), userID, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(comments))
}

// GetUserComment handles GET /users/{userId}/comments/{commentId}
func (h *Handler) GetUserComment(w http.ResponseWriter, r *http.Request) {
	userID, commentID, err := userCommentIDs(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.comments.GetUserComment(r.Context(), userID, commentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateComment handles PATCH /users/{userId}/comments/{commentId}
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, commentID, err := userCommentIDs(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req model.CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.comments.UpdateComment(r.Context(), userID, commentID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteUserComment handles DELETE /users/{userId}/comments/{commentId}
func (h *Handler) DeleteUserComment(w http.ResponseWriter, r *http.Request) {
	userID, commentID, err := userCommentIDs(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.comments.DeleteUserComment(r.Context(), userID, commentID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchComments handles GET /admin/comments/search?text=&from=&size=
func (h *Handler) SearchComments(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	comments, err := h.comments.SearchComments(r.Context(), r.URL.Query().Get("text"), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(comments))
}

// GetComment handles GET /admin/comments/{commentId} and GET /comments/{commentId}
func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "commentId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.comments.GetComment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteComment handles DELETE /admin/comments/{commentId}
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "commentId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.comments.DeleteComment(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEventComments handles GET /events/{eventId}/comments?from=&size=
func (h *Handler) ListEventComments(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := queryPage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	comments, err := h.comments.ListEventComments(r.Context(), eventID, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(comments))
}

func userCommentIDs(r *http.Request) (userID, commentID int64, err error) {
	if userID, err = pathID(r, "userId"); err != nil {
		return 0, 0, err
	}
	if commentID, err = pathID(r, "commentId"); err != nil {
		return 0, 0, err
	}
	return userID, commentID, nil
}
