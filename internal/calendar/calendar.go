package calendar

import "context"

type AddEventInput struct {
	Summary      string
	StartTime    string
	EndTime      string
	Description  string
	AttendeeName string
}

type EventResult struct {
	ProviderEventID string
	Summary         string
	Start           string
	End             string
	HTMLLink        string
	Message         string
}

// Scheduler creates one calendar entry on behalf of a user. A nil error
// means the provider confirmed the event; any failure comes back as an
// error with a human-readable reason.
type Scheduler interface {
	AddEvent(ctx context.Context, userID string, input AddEventInput) (*EventResult, error)
}
