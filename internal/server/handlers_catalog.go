package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/s376930/Chat-Arena/internal/catalog"
	"github.com/s376930/Chat-Arena/pkg/types"
)

// getConsent returns the consent document participants must accept.
func (s *Server) getConsent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Consent())
}

// updateConsent replaces the consent document.
func (s *Server) updateConsent(w http.ResponseWriter, r *http.Request) {
	var doc types.ConsentDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	if err := s.catalog.SetConsent(r.Context(), doc); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// textRequest is the body of topic/task create and update calls.
type textRequest struct {
	Text string `json:"text"`
}

func decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body")
		return "", false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Text is required")
		return "", false
	}
	return req.Text, true
}

// urlID parses a numeric {paramName} route parameter.
func urlID(w http.ResponseWriter, r *http.Request, paramName string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, paramName))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	topics := s.catalog.Topics()
	if topics == nil {
		topics = []types.Topic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (s *Server) addTopic(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}

	topic, err := s.catalog.AddTopic(r.Context(), text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (s *Server) updateTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "topicID")
	if !ok {
		return
	}
	text, ok := decodeText(w, r)
	if !ok {
		return
	}

	topic, err := s.catalog.UpdateTopic(r.Context(), id, text)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Topic not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (s *Server) deleteTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "topicID")
	if !ok {
		return
	}

	err := s.catalog.DeleteTopic(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Topic not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.catalog.Tasks()
	if tasks == nil {
		tasks = []types.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) addTask(w http.ResponseWriter, r *http.Request) {
	text, ok := decodeText(w, r)
	if !ok {
		return
	}

	task, err := s.catalog.AddTask(r.Context(), text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "taskID")
	if !ok {
		return
	}
	text, ok := decodeText(w, r)
	if !ok {
		return
	}

	task, err := s.catalog.UpdateTask(r.Context(), id, text)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "taskID")
	if !ok {
		return
	}

	err := s.catalog.DeleteTask(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// adminAuthRequest is the body of the password check endpoint.
type adminAuthRequest struct {
	Password string `json:"password"`
}

// adminAuth lets the admin frontend verify a typed password before it starts
// sending it as a header.
func (s *Server) adminAuth(w http.ResponseWriter, r *http.Request) {
	var req adminAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	if s.config.AdminPassword != "" && req.Password != s.config.AdminPassword {
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

// requireAdmin guards the admin surface with the X-Admin-Password header.
// An empty configured password disables the check for local deployments.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.AdminPassword != "" && r.Header.Get("X-Admin-Password") != s.config.AdminPassword {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid admin password")
			return
		}
		next.ServeHTTP(w, r)
	})
}
