package repository

import "time"

type ConversationStatus string

const (
	ConversationStatusActive    ConversationStatus = "active"
	ConversationStatusCompleted ConversationStatus = "completed"
	ConversationStatusError     ConversationStatus = "error"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type User struct {
	ID          string
	Email       string
	TokenSealed string
	CreatedAt   time.Time
	LastLogin   time.Time
}

// AuthSession is a browser login session, unrelated to voice sessions.
type AuthSession struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Conversation struct {
	ID            string
	SessionID     string
	UserID        *string
	Status        ConversationStatus
	StartedAt     time.Time
	EndedAt       *time.Time
	ClientIP      string
	UserAgent     string
	MessageCount  int
	EventsCreated int
}

type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	Timestamp      time.Time
}

type CalendarEventRecord struct {
	ID              string
	ConversationID  string
	ProviderEventID string
	Summary         string
	Description     string
	StartTime       time.Time
	EndTime         time.Time
	AttendeeName    string
	HTMLLink        string
	CreatedAt       time.Time
}

type Stats struct {
	TotalConversations  int
	Active              int
	Completed           int
	Errors              int
	TotalCalendarEvents int
	TotalMessages       int
}
