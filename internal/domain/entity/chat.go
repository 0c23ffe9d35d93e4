package entity

// Message is one prior turn of a conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

type ChatRequest struct {
	Message             string    `json:"message"`
	ConversationHistory []Message `json:"conversationHistory,omitempty"`
	CategoryHint        string    `json:"categoryHint,omitempty"`
	SessionID           string    `json:"sessionId,omitempty"`
}

type ChatResponse struct {
	Text        string   `json:"text"`
	Category    string   `json:"category"`
	SourcesUsed []string `json:"sourcesUsed"`
	FromCache   bool     `json:"fromCache"`
	Succeeded   bool     `json:"-"`
}

// Snippet is a retrieved piece of profile text with its provenance label.
type Snippet struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float32 `json:"score,omitempty"`
}

// ContextBundle is what the generator is conditioned on.
type ContextBundle struct {
	Category string
	Snippets []Snippet
}
