// Package conversation persists durable conversation records under the data
// directory, one JSON document per session.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s376930/Chat-Arena/internal/event"
	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/internal/storage"
	"github.com/s376930/Chat-Arena/pkg/types"
)

const recordsDir = "conversations"

// ErrNotFound is returned when no conversation exists for a session ID.
var ErrNotFound = errors.New("conversation not found")

// Log is the conversation store. Active conversations are cached in memory
// and every mutation is written through to disk immediately, so records
// survive restarts mid-conversation. Appends against a session missing from
// the cache hydrate it from disk first; if the record exists nowhere the
// message is dropped with a warning rather than failing the chat.
type Log struct {
	storage *storage.Storage
	log     zerolog.Logger

	mu     sync.Mutex
	active map[string]*types.Conversation
}

// NewLog creates a conversation log over the given store.
func NewLog(store *storage.Storage) *Log {
	return &Log{
		storage: store,
		log:     logging.Component("conversation"),
		active:  make(map[string]*types.Conversation),
	}
}

// Begin creates the conversation record and persists it immediately, so the
// record exists even if the pair never exchanges a message.
func (l *Log) Begin(ctx context.Context, sessionID, topic string, participants []types.Participant) types.Conversation {
	conv := &types.Conversation{
		SessionID:    sessionID,
		Topic:        topic,
		Participants: participants,
		Messages:     []types.ConversationMessage{},
		StartedAt:    types.NowTimestamp(),
	}

	l.mu.Lock()
	l.active[sessionID] = conv
	l.persist(ctx, conv)
	snapshot := *conv
	l.mu.Unlock()

	return snapshot
}

// Append adds a message to a conversation and writes the record through to
// disk. Role is the sender's participant ID. Returns the stored message, or
// nil when the conversation is unknown.
func (l *Log) Append(ctx context.Context, sessionID, role, content string) *types.ConversationMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	conv := l.hydrate(ctx, sessionID)
	if conv == nil {
		l.log.Warn().Str("session", sessionID).Msg("conversation not found in memory or on disk, dropping message")
		return nil
	}

	msg := types.ConversationMessage{
		Role:      role,
		Content:   content,
		Timestamp: types.NowTimestamp(),
	}
	conv.Messages = append(conv.Messages, msg)
	l.persist(ctx, conv)

	return &msg
}

// End stamps ended_at, flushes the final state and evicts the record from
// the cache. Reports whether a record existed.
func (l *Log) End(ctx context.Context, sessionID string) bool {
	l.mu.Lock()
	conv := l.hydrate(ctx, sessionID)
	if conv == nil {
		l.mu.Unlock()
		return false
	}

	ended := types.NowTimestamp()
	conv.EndedAt = &ended
	l.persist(ctx, conv)
	delete(l.active, sessionID)
	messages := len(conv.Messages)
	l.mu.Unlock()

	event.Publish(event.Event{
		Type: event.ConversationEnded,
		Data: event.ConversationEndedData{SessionID: sessionID, Messages: messages},
	})
	return true
}

// Active returns a copy of an in-memory conversation record.
func (l *Log) Active(sessionID string) (types.Conversation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	conv, ok := l.active[sessionID]
	if !ok {
		return types.Conversation{}, false
	}
	return *conv, true
}

// Get returns a conversation record, checking the cache before disk.
func (l *Log) Get(ctx context.Context, sessionID string) (types.Conversation, error) {
	if conv, ok := l.Active(sessionID); ok {
		return conv, nil
	}

	var conv types.Conversation
	err := l.storage.Get(ctx, []string{recordsDir, sessionID}, &conv)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Conversation{}, ErrNotFound
	}
	if err != nil {
		return types.Conversation{}, fmt.Errorf("load conversation %s: %w", sessionID, err)
	}
	return conv, nil
}

// Summary is one row in the stored-conversation listing.
type Summary struct {
	SessionID    string  `json:"session_id"`
	Filename     string  `json:"filename"`
	Size         int64   `json:"size"`
	Modified     string  `json:"modified"`
	Topic        string  `json:"topic"`
	MessageCount int     `json:"message_count"`
	StartedAt    string  `json:"started_at,omitempty"`
	EndedAt      *string `json:"ended_at,omitempty"`
}

// List returns summaries of every stored conversation, newest first.
// Unreadable files still get a row so operators can spot and remove them.
func (l *Log) List(ctx context.Context) ([]Summary, error) {
	infos, err := l.storage.ListInfo(ctx, []string{recordsDir})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	summaries := make([]Summary, 0, len(infos))
	for _, info := range infos {
		summary := Summary{
			SessionID: info.Key,
			Filename:  info.Key + ".json",
			Size:      info.Size,
			Modified:  info.Modified.UTC().Format(time.RFC3339),
			Topic:     "Unknown",
		}
		var conv types.Conversation
		if err := l.storage.Get(ctx, []string{recordsDir, info.Key}, &conv); err == nil {
			summary.Topic = conv.Topic
			summary.MessageCount = len(conv.Messages)
			summary.StartedAt = conv.StartedAt
			summary.EndedAt = conv.EndedAt
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Modified > summaries[j].Modified
	})
	return summaries, nil
}

// Delete removes a stored conversation.
func (l *Log) Delete(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	delete(l.active, sessionID)
	l.mu.Unlock()

	if !l.storage.Exists(ctx, []string{recordsDir, sessionID}) {
		return ErrNotFound
	}
	return l.storage.Delete(ctx, []string{recordsDir, sessionID})
}

// DeleteAll removes every stored conversation and returns how many went.
func (l *Log) DeleteAll(ctx context.Context) (int, error) {
	keys, err := l.storage.List(ctx, []string{recordsDir})
	if err != nil {
		return 0, fmt.Errorf("list conversations: %w", err)
	}

	l.mu.Lock()
	l.active = make(map[string]*types.Conversation)
	l.mu.Unlock()

	deleted := 0
	for _, key := range keys {
		if err := l.storage.Delete(ctx, []string{recordsDir, key}); err != nil {
			l.log.Warn().Err(err).Str("session", key).Msg("failed to delete conversation")
			continue
		}
		deleted++
	}
	return deleted, nil
}

// hydrate returns the cached record for sessionID, loading it from disk on a
// miss. Callers hold l.mu.
func (l *Log) hydrate(ctx context.Context, sessionID string) *types.Conversation {
	if conv, ok := l.active[sessionID]; ok {
		return conv
	}

	var conv types.Conversation
	if err := l.storage.Get(ctx, []string{recordsDir, sessionID}, &conv); err != nil {
		return nil
	}
	l.active[sessionID] = &conv
	return &conv
}

// persist writes the record to disk. Callers hold l.mu. Failures are logged,
// not returned: a chat must not stall on a storage hiccup.
func (l *Log) persist(ctx context.Context, conv *types.Conversation) {
	if err := l.storage.Put(ctx, []string{recordsDir, conv.SessionID}, conv); err != nil {
		l.log.Error().Err(err).Str("session", conv.SessionID).Msg("failed to save conversation")
	}
}
