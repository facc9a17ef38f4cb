package handler

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts every API endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	// Admin API
	r.Route("/admin", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.CreateUser)
			r.Get("/", h.ListUsers)
			r.Delete("/{userId}", h.DeleteUser)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Post("/", h.CreateCategory)
			r.Patch("/{catId}", h.UpdateCategory)
			r.Delete("/{catId}", h.DeleteCategory)
		})
		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.SearchAdminEvents)
			r.Patch("/{eventId}", h.UpdateAdminEvent)
		})
		r.Route("/comments", func(r chi.Router) {
			r.Get("/search", h.SearchComments)
			r.Get("/{commentId}", h.GetComment)
			r.Delete("/{commentId}", h.DeleteComment)
		})
		r.Route("/compilations", func(r chi.Router) {
			r.Post("/", h.CreateCompilation)
			r.Patch("/{compId}", h.UpdateCompilation)
			r.Delete("/{compId}", h.DeleteCompilation)
		})
	})

	// Private API
	r.Route("/users/{userId}", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.CreateEvent)
			r.Get("/", h.ListUserEvents)
			r.Get("/{eventId}", h.GetUserEvent)
			r.Patch("/{eventId}", h.UpdateUserEvent)
			r.Get("/{eventId}/requests", h.ListEventRequests)
			r.Patch("/{eventId}/requests", h.ModerateRequests)
		})
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.SubmitRequest)
			r.Get("/", h.ListUserRequests)
			r.Patch("/{requestId}/cancel", h.CancelRequest)
		})
		r.Route("/comments", func(r chi.Router) {
			r.Post("/", h.CreateComment)
			r.Get("/", h.ListUserComments)
			r.Get("/{commentId}", h.GetUserComment)
			r.Patch("/{commentId}", h.UpdateComment)
			r.Delete("/{commentId}", h.DeleteUserComment)
		})
	})

	// Public API
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{catId}", h.GetCategory)
	})
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.SearchPublishedEvents)
		r.Get("/{eventId}", h.GetPublishedEvent)
		r.Get("/{eventId}/comments", h.ListEventComments)
	})
	r.Get("/comments/{commentId}", h.GetComment)
	r.Route("/compilations", func(r chi.Router) {
		r.Get("/", h.ListCompilations)
		r.Get("/{compId}", h.GetCompilation)
	})
}
