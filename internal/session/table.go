package session

import (
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/pkg/types"
)

// Conn is the client transport a session speaks over. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// client couples a connection with a write mutex. Gorilla websockets support
// only one concurrent writer, and frames for one user can originate from the
// read loop, AI goroutines, timers and the evictor at once.
type client struct {
	mu   sync.Mutex
	conn Conn
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Table tracks live connections, human sessions and AI session records.
// Every state transition happens under the table lock; socket writes never
// do. Send looks the client up under the lock and writes outside it.
type Table struct {
	log zerolog.Logger

	mu         sync.RWMutex
	clients    map[string]*client
	sessions   map[string]*types.Session
	aiSessions map[string]*types.AISession
}

// NewTable creates an empty session table.
func NewTable() *Table {
	return &Table{
		log:        logging.Component("session"),
		clients:    make(map[string]*client),
		sessions:   make(map[string]*types.Session),
		aiSessions: make(map[string]*types.AISession),
	}
}

// NewUserID mints an opaque user token.
func NewUserID() string {
	u := uuid.New()
	return "user_" + hex.EncodeToString(u[:4])
}

// NewAIID mints an opaque AI participant token.
func NewAIID() string {
	u := uuid.New()
	return "ai_" + hex.EncodeToString(u[:4])
}

// Connect registers a connection under a freshly minted user ID and creates
// a blank session for it. The returned ID is the user's identity for the
// rest of the connection.
func (t *Table) Connect(conn Conn) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	userID := NewUserID()
	for {
		if _, taken := t.sessions[userID]; !taken {
			break
		}
		userID = NewUserID()
	}

	t.clients[userID] = &client{conn: conn}
	t.sessions[userID] = &types.Session{UserID: userID}
	return userID
}

// Disconnect drops a user's connection and session. Returns the partner ID
// the user was paired with, or "" if none.
func (t *Table) Disconnect(userID string) (partnerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[userID]; ok {
		partnerID = s.PartnerID
		delete(t.sessions, userID)
	}
	delete(t.clients, userID)
	return partnerID
}

// Get returns a copy of a user's session.
func (t *Table) Get(userID string) (types.Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[userID]
	if !ok {
		return types.Session{}, false
	}
	return *s, true
}

// Update applies fn to a user's session under the table lock. Reports
// whether the session existed.
func (t *Table) Update(userID string, fn func(*types.Session)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok {
		return false
	}
	fn(s)
	return true
}

// Touch stamps a user's last activity time.
func (t *Table) Touch(userID string) {
	now := time.Now()
	t.Update(userID, func(s *types.Session) {
		s.LastActivity = &now
	})
}

// Send writes v to a user's connection as JSON. Returns false when the user
// is gone or the write fails.
func (t *Table) Send(userID string, v any) bool {
	t.mu.RLock()
	c, ok := t.clients[userID]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	if err := c.writeJSON(v); err != nil {
		t.log.Debug().Err(err).Str("user", userID).Msg("websocket write failed")
		return false
	}
	return true
}

// SendToPartner writes v to the user's current partner. The partner is
// resolved and verified under the lock (mutual pairing for a human partner,
// a live session record for an AI one) so a frame can't land on somebody
// the partner was swapped away from between resolve and write.
func (t *Table) SendToPartner(userID string, v any) bool {
	t.mu.RLock()
	var c *client
	if s, ok := t.sessions[userID]; ok && s.PartnerID != "" {
		if s.IsAIPartner {
			if rec, ok := t.aiSessions[s.PartnerID]; ok && rec.IsActive {
				c = t.clients[s.PartnerID]
			}
		} else if p, ok := t.sessions[s.PartnerID]; ok && p.PartnerID == userID {
			c = t.clients[s.PartnerID]
		}
	}
	t.mu.RUnlock()

	if c == nil {
		return false
	}
	if err := c.writeJSON(v); err != nil {
		t.log.Debug().Err(err).Str("user", userID).Msg("partner websocket write failed")
		return false
	}
	return true
}

// VerifyPairing reports whether two users reciprocally name each other as
// partners.
func (t *Table) VerifyPairing(userID, partnerID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	a, okA := t.sessions[userID]
	b, okB := t.sessions[partnerID]
	return okA && okB && a.PartnerID == partnerID && b.PartnerID == userID
}

// IsPaired reports whether a user is currently paired.
func (t *Table) IsPaired(userID string) bool {
	s, ok := t.Get(userID)
	return ok && s.Paired
}

// PartnerID returns a user's current partner ID, or "".
func (t *Table) PartnerID(userID string) string {
	s, _ := t.Get(userID)
	return s.PartnerID
}

// PairUsers atomically pairs two users into a session. It fails, leaving
// both untouched, when either user is gone or already paired, which closes
// the race where a candidate disconnects between dequeue and pairing.
func (t *Table) PairUsers(userID, partnerID, sessionID, userTask, partnerTask string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, okA := t.sessions[userID]
	b, okB := t.sessions[partnerID]
	if !okA || !okB || a.Paired || b.Paired {
		return false
	}

	now := time.Now()
	a.Paired = true
	a.PartnerID = partnerID
	a.SessionID = sessionID
	a.Task = userTask
	a.IsAIPartner = false
	a.LastActivity = &now

	b.Paired = true
	b.PartnerID = userID
	b.SessionID = sessionID
	b.Task = partnerTask
	b.IsAIPartner = false
	b.LastActivity = &now
	return true
}

// PairWithAI marks a user as paired with an AI participant. Fails when the
// user is gone or already paired.
func (t *Table) PairWithAI(userID, aiID, sessionID, task string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[userID]
	if !ok || s.Paired {
		return false
	}

	now := time.Now()
	s.Paired = true
	s.PartnerID = aiID
	s.SessionID = sessionID
	s.Task = task
	s.IsAIPartner = true
	s.LastActivity = &now
	return true
}

// ClearPairing resets a user's pairing fields, keeping the connection and
// consent state. Reports whether the session existed, so callers can tell a
// cleared partner from one that already disconnected.
func (t *Table) ClearPairing(userID string) bool {
	return t.Update(userID, func(s *types.Session) {
		s.Paired = false
		s.PartnerID = ""
		s.SessionID = ""
		s.Task = ""
		s.IsAIPartner = false
	})
}

// InactiveUsers returns the IDs of paired users whose last activity predates
// the timeout. Unpaired users are never reported; the waiting queue is not
// subject to the inactivity policy.
func (t *Table) InactiveUsers(timeout time.Duration) []string {
	cutoff := time.Now().Add(-timeout)

	t.mu.RLock()
	defer t.mu.RUnlock()

	var inactive []string
	for userID, s := range t.sessions {
		if s.Paired && s.LastActivity != nil && s.LastActivity.Before(cutoff) {
			inactive = append(inactive, userID)
		}
	}
	return inactive
}

// Count returns the number of connected users.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clients)
}

// CreateAISession stores an AI session record, stamping it active with the
// creation time.
func (t *Table) CreateAISession(rec types.AISession) types.AISession {
	rec.IsActive = true
	rec.CreatedAt = types.NowTimestamp()

	t.mu.Lock()
	t.aiSessions[rec.AIID] = &rec
	t.mu.Unlock()
	return rec
}

// AISession returns a copy of an AI session record.
func (t *Table) AISession(aiID string) (types.AISession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.aiSessions[aiID]
	if !ok {
		return types.AISession{}, false
	}
	return *rec, true
}

// AISessionByPartner finds the active AI session attached to a human.
func (t *Table) AISessionByPartner(partnerID string) (types.AISession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, rec := range t.aiSessions {
		if rec.PartnerID == partnerID && rec.IsActive {
			return *rec, true
		}
	}
	return types.AISession{}, false
}

// RemoveAISession deletes and returns an AI session record.
func (t *Table) RemoveAISession(aiID string) (types.AISession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.aiSessions[aiID]
	if !ok {
		return types.AISession{}, false
	}
	delete(t.aiSessions, aiID)
	return *rec, true
}

// IsAI reports whether an ID belongs to an AI participant.
func (t *Table) IsAI(id string) bool {
	t.mu.RLock()
	_, ok := t.aiSessions[id]
	t.mu.RUnlock()
	return ok || strings.HasPrefix(id, "ai_")
}

// AISessions returns copies of all AI session records.
func (t *Table) AISessions() []types.AISession {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.AISession, 0, len(t.aiSessions))
	for _, rec := range t.aiSessions {
		out = append(out, *rec)
	}
	return out
}

// ActiveAICount counts active AI sessions.
func (t *Table) ActiveAICount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, rec := range t.aiSessions {
		if rec.IsActive {
			n++
		}
	}
	return n
}
