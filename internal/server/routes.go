package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all routes. The chat protocol itself runs over /ws;
// everything under /api/admin except the auth check requires the admin
// password header.
func (s *Server) setupRoutes() {
	r := s.router

	// Chat transport
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		// Public surface
		r.Get("/consent", s.getConsent)
		r.Get("/status", s.getStatus)

		// Operator event feed (SSE)
		r.Get("/events", s.streamEvents)

		// Admin surface
		r.Route("/admin", func(r chi.Router) {
			r.Post("/auth", s.adminAuth)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Route("/topics", func(r chi.Router) {
					r.Get("/", s.listTopics)
					r.Post("/", s.addTopic)
					r.Put("/{topicID}", s.updateTopic)
					r.Delete("/{topicID}", s.deleteTopic)
				})

				r.Route("/tasks", func(r chi.Router) {
					r.Get("/", s.listTasks)
					r.Post("/", s.addTask)
					r.Put("/{taskID}", s.updateTask)
					r.Delete("/{taskID}", s.deleteTask)
				})

				r.Get("/consent", s.getConsent)
				r.Put("/consent", s.updateConsent)

				r.Route("/conversations", func(r chi.Router) {
					r.Get("/", s.listConversations)
					r.Delete("/", s.deleteAllConversations)
					r.Get("/export", s.exportConversations)

					r.Route("/{sessionID}", func(r chi.Router) {
						r.Get("/", s.getConversation)
						r.Get("/download", s.downloadConversation)
						r.Delete("/", s.deleteConversation)
					})
				})
			})
		})
	})
}
