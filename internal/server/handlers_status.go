package server

import (
	"net/http"
	"time"
)

// providerInfo describes one registered LLM provider.
type providerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// statusResponse is the health and load snapshot served at /api/status.
type statusResponse struct {
	Status         string         `json:"status"`
	UptimeSeconds  int64          `json:"uptime_seconds"`
	ConnectedUsers int            `json:"connected_users"`
	WaitingUsers   int            `json:"waiting_users"`
	ActiveAI       int            `json:"active_ai"`
	AIAvailable    bool           `json:"ai_available"`
	Providers      []providerInfo `json:"providers"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:         "ok",
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		ConnectedUsers: s.table.Count(),
		WaitingUsers:   s.queue.Size(),
		Providers:      []providerInfo{},
	}

	if s.ai != nil {
		resp.ActiveAI = s.ai.Count()
		resp.AIAvailable = s.ai.Available()
	}
	if s.providers != nil {
		for _, p := range s.providers.List() {
			resp.Providers = append(resp.Providers, providerInfo{
				ID:    p.ID(),
				Name:  p.Name(),
				Model: p.Model(),
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
