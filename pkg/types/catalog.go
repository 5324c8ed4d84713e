package types

// Topic is a conversation subject offered to a freshly paired couple.
type Topic struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Task is a per-participant instruction; each side of a pairing gets a
// different one.
type Task struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// TopicsTasks is the on-disk catalog document holding both lists.
type TopicsTasks struct {
	Topics []Topic `json:"topics"`
	Tasks  []Task  `json:"tasks"`
}

// ConsentDocument is the consent form shown before joining. Checkboxes are
// the statements a participant must tick.
type ConsentDocument struct {
	Title      string   `json:"title"`
	Version    string   `json:"version"`
	Content    string   `json:"content"`
	Checkboxes []string `json:"checkboxes"`
}
