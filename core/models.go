package core

import "time"

// Message roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Document is a stored knowledge unit. The textual content and embedding
// vector live inside Fields under aliased keys (see fields.go), so records
// written by other tooling with slightly different schemas remain searchable.
type Document struct {
	Id        string
	Fields    map[string]any    // Open field map; vector and text under accepted aliases
	Metadata  map[string]string // Optional metadata, no schema enforced
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SearchResult is a query-time projection of a matched document.
// It is constructed fresh per search call and never persisted.
type SearchResult struct {
	Id         string
	Text       string
	Similarity float32 // In [0.0, 1.0]
	Metadata   map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Message is a single conversation turn.
type Message struct {
	Role    string
	Content string
}

// Checkpoint is a persisted conversation memory snapshot.
// It allows a later pipeline run with the same conversation id to resume
// with the prior message history.
type Checkpoint struct {
	ConversationId string
	Messages       []Message
	UpdatedAt      time.Time
}
