package event

// UserConnectedData is the data for user.connected events.
type UserConnectedData struct {
	UserID string `json:"userID"`
}

// UserDisconnectedData is the data for user.disconnected events.
type UserDisconnectedData struct {
	UserID string `json:"userID"`
}

// UserWaitingData is the data for user.waiting events.
type UserWaitingData struct {
	UserID   string `json:"userID"`
	Position int    `json:"position"`
}

// UserEvictedData is the data for user.evicted events.
// Emitted when a user is kicked back to the consent gate for inactivity.
type UserEvictedData struct {
	UserID string `json:"userID"`
}

// PairCreatedData is the data for pair.created events.
type PairCreatedData struct {
	SessionID string `json:"sessionID"`
	UserA     string `json:"userA"`
	UserB     string `json:"userB"`
	Topic     string `json:"topic"`
	WithAI    bool   `json:"withAI"`
}

// PairBrokenData is the data for pair.broken events.
// Reason is one of "reassign", "disconnect" or "inactivity".
type PairBrokenData struct {
	SessionID string `json:"sessionID"`
	UserID    string `json:"userID"`
	PartnerID string `json:"partnerID"`
	Reason    string `json:"reason"`
}

// MessageRoutedData is the data for message.routed events.
type MessageRoutedData struct {
	SessionID string `json:"sessionID"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// AISpawnedData is the data for ai.spawned events.
type AISpawnedData struct {
	AIID      string `json:"aiID"`
	PartnerID string `json:"partnerID"`
	SessionID string `json:"sessionID"`
	Persona   string `json:"persona"`
	Provider  string `json:"provider"`
}

// AIRemovedData is the data for ai.removed events.
type AIRemovedData struct {
	AIID      string `json:"aiID"`
	SessionID string `json:"sessionID"`
}

// ConversationEndedData is the data for conversation.ended events.
type ConversationEndedData struct {
	SessionID string `json:"sessionID"`
	Messages  int    `json:"messages"`
}
