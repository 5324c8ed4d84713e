package ai

import (
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
)

// DefaultMemoryEntries bounds conversation memory when no limit is
// configured.
const DefaultMemoryEntries = 50

// Roles for memory entries.
const (
	RolePartner   = "user"
	RoleAssistant = "assistant"
)

// Entry is one remembered conversation turn.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Think     string    `json:"think,omitempty"`
	Speech    string    `json:"speech,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Sentiment string    `json:"sentiment,omitempty"`
}

// Memory holds the bounded conversation history for one AI participant.
// When the bound is exceeded the oldest entries drop silently.
type Memory struct {
	mu         sync.Mutex
	maxEntries int
	entries    []Entry

	topic     string
	task      string
	sessionID string
}

// NewMemory creates a memory bounded to maxEntries turns (DefaultMemoryEntries
// when zero or negative).
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	return &Memory{maxEntries: maxEntries}
}

// SetContext records the conversation this memory belongs to.
func (m *Memory) SetContext(topic, task, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topic = topic
	m.task = task
	m.sessionID = sessionID
}

// Topic returns the conversation topic.
func (m *Memory) Topic() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topic
}

// Task returns the AI's assigned task.
func (m *Memory) Task() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.task
}

// SessionID returns the conversation session ID.
func (m *Memory) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// AddPartnerMessage remembers a message from the human partner.
func (m *Memory) AddPartnerMessage(content, sentiment string) {
	m.add(Entry{
		Role:      RolePartner,
		Content:   content,
		Speech:    content,
		Timestamp: time.Now(),
		Sentiment: sentiment,
	})
}

// AddAIMessage remembers a message from the AI itself in the canonical
// two-channel form.
func (m *Memory) AddAIMessage(think, speech string) {
	m.add(Entry{
		Role:      RoleAssistant,
		Content:   "<think>" + think + "</think><speech>" + speech + "</speech>",
		Think:     think,
		Speech:    speech,
		Timestamp: time.Now(),
	})
}

func (m *Memory) add(entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	if len(m.entries) > m.maxEntries {
		m.entries = m.entries[len(m.entries)-m.maxEntries:]
	}
}

// MessagesForLLM returns the history shaped for a completion request:
// partner turns carry just their speech, assistant turns the canonical
// tagged form so the model sees its own private reasoning.
func (m *Memory) MessagesForLLM() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages := make([]*schema.Message, 0, len(m.entries))
	for _, entry := range m.entries {
		if entry.Role == RolePartner {
			content := entry.Speech
			if content == "" {
				content = entry.Content
			}
			messages = append(messages, &schema.Message{Role: schema.User, Content: content})
		} else {
			messages = append(messages, &schema.Message{Role: schema.Assistant, Content: entry.Content})
		}
	}
	return messages
}

// LastPartnerMessage returns the most recent partner entry.
func (m *Memory) LastPartnerMessage() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Role == RolePartner {
			return m.entries[i], true
		}
	}
	return Entry{}, false
}

// TurnCount returns the total number of remembered turns.
func (m *Memory) TurnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// PartnerMessageCount returns the number of partner turns.
func (m *Memory) PartnerMessageCount() int {
	return m.countRole(RolePartner)
}

// AIMessageCount returns the number of assistant turns.
func (m *Memory) AIMessageCount() int {
	return m.countRole(RoleAssistant)
}

func (m *Memory) countRole(role string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, entry := range m.entries {
		if entry.Role == role {
			n++
		}
	}
	return n
}

// RecentSentiments returns the sentiments of the latest partner messages
// in chronological order, at most count of them.
func (m *Memory) RecentSentiments(count int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var reversed []string
	for i := len(m.entries) - 1; i >= 0 && len(reversed) < count; i-- {
		if m.entries[i].Role == RolePartner {
			reversed = append(reversed, m.entries[i].Sentiment)
		}
	}

	sentiments := make([]string, len(reversed))
	for i, s := range reversed {
		sentiments[len(reversed)-1-i] = s
	}
	return sentiments
}

// Clear wipes the history and context for the next conversation.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.topic = ""
	m.task = ""
	m.sessionID = ""
}
