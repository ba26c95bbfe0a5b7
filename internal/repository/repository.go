package repository

import (
	"context"
	"time"
)

type CreateConversationInput struct {
	SessionID string
	UserID    *string
	ClientIP  string
	UserAgent string
	StartedAt time.Time
}

type FinalizeConversationInput struct {
	ConversationID string
	Status         ConversationStatus
	EndedAt        time.Time
}

type AppendMessageInput struct {
	ConversationID string
	Role           string
	Content        string
	Timestamp      time.Time
}

type RecordCalendarEventInput struct {
	ConversationID  string
	ProviderEventID string
	Summary         string
	Description     string
	StartTime       time.Time
	EndTime         time.Time
	AttendeeName    string
	HTMLLink        string
}

type ListConversationsInput struct {
	UserID *string
	Limit  int
	Offset int
}

type ListCalendarEventsInput struct {
	UserID *string
	Limit  int
	Offset int
}

type ConversationRepository interface {
	CreateConversation(ctx context.Context, input CreateConversationInput) (*Conversation, error)
	FinalizeConversation(ctx context.Context, input FinalizeConversationInput) error
	GetConversation(ctx context.Context, conversationID string) (*Conversation, error)
	GetConversationBySessionID(ctx context.Context, sessionID string) (*Conversation, error)
	ListConversations(ctx context.Context, input ListConversationsInput) ([]Conversation, error)
	ConversationStats(ctx context.Context, userID *string) (*Stats, error)
}

type MessageRepository interface {
	AppendMessage(ctx context.Context, input AppendMessageInput) error
	ListMessagesByConversationID(ctx context.Context, conversationID string) ([]Message, error)
}

// RecordCalendarEvent inserts the record and increments the owning
// conversation's events-created counter in one transaction.
type CalendarEventRepository interface {
	RecordCalendarEvent(ctx context.Context, input RecordCalendarEventInput) (*CalendarEventRecord, error)
	ListCalendarEvents(ctx context.Context, input ListCalendarEventsInput) ([]CalendarEventRecord, error)
	ListCalendarEventsByConversationID(ctx context.Context, conversationID string) ([]CalendarEventRecord, error)
}

type UserRepository interface {
	UpsertUserByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	SaveUserToken(ctx context.Context, userID, sealedToken string) error
	ClearUserToken(ctx context.Context, userID string) error
	CreateAuthSession(ctx context.Context, session AuthSession) error
	GetUserByAuthToken(ctx context.Context, token string) (*User, error)
	DeleteAuthSession(ctx context.Context, token string) error
}

type Repository interface {
	ConversationRepository
	MessageRepository
	CalendarEventRepository
	UserRepository
}
