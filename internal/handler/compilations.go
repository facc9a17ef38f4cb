package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// CreateCompilation handles POST /admin/compilations
func (h *Handler) CreateCompilation(w http.ResponseWriter, r *http.Request) {
	var req model.NewCompilationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.compilations.CreateCompilation(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCompilation handles PATCH /admin/compilations/{compId}
func (h *Handler) UpdateCompilation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "compId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req model.UpdateCompilationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.compilations.UpdateCompilation(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCompilation handles DELETE /admin/compilations/{compId}
func (h *Handler) DeleteCompilation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "compId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.compilations.DeleteCompilation(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCompilations handles GET /compilations?pinned=&from=&size=
func (h *Handler) ListCompilations(w http.ResponseWriter, r *http.Request) {
	pinned, err := queryBool(r, "pinned")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := queryPage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	comps, err := h.compilations.ListCompilations(r.Context(), pinned, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOf(comps))
}

// GetCompilation handles GET /compilations/{compId}
func (h *Handler) GetCompilation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "compId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.compilations.GetCompilation(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
