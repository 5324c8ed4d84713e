package types

import "time"

// Session is the server-held state for one connected human participant.
// The pairing fields (Paired, PartnerID, SessionID, Task) are set and cleared
// together: a session is paired exactly when all four are populated.
type Session struct {
	UserID       string     `json:"user_id"`
	Consented    bool       `json:"consented"`
	Paired       bool       `json:"paired"`
	PartnerID    string     `json:"partner_id,omitempty"`
	SessionID    string     `json:"session_id,omitempty"`
	Task         string     `json:"task,omitempty"`
	IsAIPartner  bool       `json:"is_ai_partner"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// AISession is the server-held state for one live AI participant. It exists
// exactly as long as some human session names its AIID as partner.
type AISession struct {
	AIID        string `json:"ai_id"`
	PartnerID   string `json:"partner_id"`
	SessionID   string `json:"session_id"`
	PersonaID   string `json:"persona_id"`
	PersonaName string `json:"persona_name"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Topic       string `json:"topic"`
	Task        string `json:"task"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}
