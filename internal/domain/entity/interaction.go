package entity

import "time"

// InteractionLogEntry records one pipeline invocation. Entries are immutable once appended.
type InteractionLogEntry struct {
	ID                  string    `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	UserMessage         string    `json:"userMessage"`
	AIResponse          string    `json:"aiResponse"`
	ResponseTimeMs      int64     `json:"responseTimeMs"`
	Category            string    `json:"category"`
	ContextSnippetCount int       `json:"contextSnippetCount"`
	SessionID           string    `json:"sessionId,omitempty"`
	Succeeded           bool      `json:"succeeded"`
	FromCache           bool      `json:"fromCache"`
	ErrorMessage        string    `json:"errorMessage,omitempty"`
}

// SessionAggregate is derived from the log entries that carry a session id.
type SessionAggregate struct {
	SessionID             string    `json:"sessionId"`
	FirstSeen             time.Time `json:"firstSeen"`
	LastSeen              time.Time `json:"lastSeen"`
	QuestionCount         int       `json:"questionCount"`
	AverageResponseTimeMs float64   `json:"averageResponseTimeMs"`
	Categories            []string  `json:"categories"`
}

// LogQuery filters interaction log reads. Zero values mean "no filter".
type LogQuery struct {
	Since     time.Time
	SessionID string
	Keyword   string
	Limit     int
}
