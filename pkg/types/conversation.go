package types

import "strings"

// Participant records one side of a conversation and the task it was given.
type Participant struct {
	UserID string `json:"user_id"`
	Task   string `json:"task"`
}

// ConversationMessage is a single on-record turn. Role is the originating
// participant's opaque id (human or AI). Content is the canonical form
// produced by CanonicalContent.
type ConversationMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Conversation is the durable record of one paired interaction. EndedAt is
// nil while the conversation is live; once set the record is read-only.
type Conversation struct {
	SessionID    string                `json:"session_id"`
	Topic        string                `json:"topic"`
	Participants []Participant         `json:"participants"`
	Messages     []ConversationMessage `json:"messages"`
	StartedAt    string                `json:"started_at"`
	EndedAt      *string               `json:"ended_at"`
}

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// CanonicalContent builds the on-record form of a turn: the private think
// wrapped in think tags, followed by the speech the partner actually saw.
func CanonicalContent(think, speech string) string {
	return thinkOpen + think + thinkClose + speech
}

// ParseCanonicalContent splits a canonical content string back into its think
// and speech halves. Content without a leading think tag is treated as pure
// speech with an empty think.
func ParseCanonicalContent(content string) (think, speech string) {
	if !strings.HasPrefix(content, thinkOpen) {
		return "", content
	}
	rest := content[len(thinkOpen):]
	end := strings.Index(rest, thinkClose)
	if end < 0 {
		return "", content
	}
	return rest[:end], rest[end+len(thinkClose):]
}
