package types

// FrameType identifies a wire protocol frame.
type FrameType string

// Client → server frame types.
const (
	FrameJoin       FrameType = "join"
	FrameMessage    FrameType = "message"
	FrameReassign   FrameType = "reassign"
	FrameDisconnect FrameType = "disconnect"
)

// Server → client frame types.
const (
	FrameWaiting        FrameType = "waiting"
	FramePaired         FrameType = "paired"
	FramePartnerMessage FrameType = "partner_message"
	FrameMessageSent    FrameType = "message_sent"
	FramePartnerLeft    FrameType = "partner_left"
	FrameInactivityKick FrameType = "inactivity_kick"
	FrameError          FrameType = "error"
)

// ClientFrame is a single inbound frame. Fields beyond Type are populated
// depending on the frame type: Consent for "join", Think/Speech for "message".
type ClientFrame struct {
	Type    FrameType `json:"type"`
	Consent bool      `json:"consent,omitempty"`
	Think   string    `json:"think,omitempty"`
	Speech  string    `json:"speech,omitempty"`
}

// ServerFrame is a single outbound frame. Optional fields are omitted when
// empty so each frame type carries exactly the fields the protocol defines.
type ServerFrame struct {
	Type      FrameType `json:"type"`
	Position  int       `json:"position,omitempty"`
	Topic     string    `json:"topic,omitempty"`
	Task      string    `json:"task,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// WaitingFrame reports the 1-indexed queue position.
func WaitingFrame(position int) ServerFrame {
	return ServerFrame{Type: FrameWaiting, Position: position}
}

// PairedFrame announces a new pairing with the receiver's own task.
func PairedFrame(topic, task, sessionID string) ServerFrame {
	return ServerFrame{Type: FramePaired, Topic: topic, Task: task, SessionID: sessionID}
}

// PartnerMessageFrame delivers a partner's speech.
func PartnerMessageFrame(content, timestamp string) ServerFrame {
	return ServerFrame{Type: FramePartnerMessage, Content: content, Timestamp: timestamp}
}

// MessageSentFrame acknowledges the sender's own message.
func MessageSentFrame(timestamp string) ServerFrame {
	return ServerFrame{Type: FrameMessageSent, Timestamp: timestamp}
}

// PartnerLeftFrame tells a user their partner is gone.
func PartnerLeftFrame() ServerFrame {
	return ServerFrame{Type: FramePartnerLeft}
}

// InactivityKickFrame tells a user they were evicted for inactivity.
func InactivityKickFrame() ServerFrame {
	return ServerFrame{Type: FrameInactivityKick}
}

// ErrorFrame reports a recoverable protocol error.
func ErrorFrame(message string) ServerFrame {
	return ServerFrame{Type: FrameError, Message: message}
}
