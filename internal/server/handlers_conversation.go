package server

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/s376930/Chat-Arena/internal/conversation"
)

// sessionIDParam pulls and validates the {sessionID} route parameter.
// Session IDs map to filenames, so anything that could escape the records
// directory is rejected.
func sessionIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" || strings.ContainsAny(sessionID, "/\\") || strings.Contains(sessionID, "..") {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid session ID")
		return "", false
	}
	return sessionID, true
}

// listConversations returns summaries of every stored conversation, newest
// first.
func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.conversations.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	if summaries == nil {
		summaries = []conversation.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": summaries})
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	conv, err := s.conversations.Get(r.Context(), sessionID)
	if errors.Is(err, conversation.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Conversation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// downloadConversation serves the record as a file attachment.
func (s *Server) downloadConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	conv, err := s.conversations.Get(r.Context(), sessionID)
	if errors.Is(err, conversation.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Conversation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sessionID+".json"))
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	err := s.conversations.Delete(r.Context(), sessionID)
	if errors.Is(err, conversation.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Conversation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "session_id": sessionID})
}

func (s *Server) deleteAllConversations(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.conversations.DeleteAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "deleted_count": deleted})
}

// exportConversations streams every stored record as one ZIP archive.
// Records that fail to load are skipped so one corrupt file can't block a
// full export.
func (s *Server) exportConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.conversations.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	filename := fmt.Sprintf("conversations_%s.zip", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, summary := range summaries {
		conv, err := s.conversations.Get(r.Context(), summary.SessionID)
		if err != nil {
			s.log.Warn().Err(err).Str("session", summary.SessionID).
				Msg("skipping unreadable conversation in export")
			continue
		}

		data, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			continue
		}
		f, err := zw.Create(summary.SessionID + ".json")
		if err != nil {
			return
		}
		if _, err := f.Write(data); err != nil {
			return
		}
	}
}
