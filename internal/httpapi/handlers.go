package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/voxcal/voxcal/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "voxcal-backend",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"services": map[string]string{
			"database":        "connected",
			"google_calendar": "configured",
			"openai":          "configured",
		},
	})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	conversations, err := s.repo.ListConversations(r.Context(), repository.ListConversationsInput{
		UserID: s.currentUserID(r),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("list conversations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	items := make([]conversationDTO, 0, len(conversations))
	for _, c := range conversations {
		items = append(items, toConversationDTO(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": items,
		"count":         len(items),
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conversation, err := s.repo.GetConversation(r.Context(), id)
	if err != nil {
		s.logger.Error("get conversation failed", "error", err, "conversation_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	if conversation == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	messages, err := s.repo.ListMessagesByConversationID(r.Context(), id)
	if err != nil {
		s.logger.Error("list messages failed", "error", err, "conversation_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	events, err := s.repo.ListCalendarEventsByConversationID(r.Context(), id)
	if err != nil {
		s.logger.Error("list conversation events failed", "error", err, "conversation_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	messageItems := make([]messageDTO, 0, len(messages))
	for _, m := range messages {
		messageItems = append(messageItems, toMessageDTO(m))
	}
	eventItems := make([]calendarEventDTO, 0, len(events))
	for _, e := range events {
		eventItems = append(eventItems, toCalendarEventDTO(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": toConversationDTO(*conversation),
		"messages":     messageItems,
		"events":       eventItems,
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	events, err := s.repo.ListCalendarEvents(r.Context(), repository.ListCalendarEventsInput{
		UserID: s.currentUserID(r),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("list events failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	items := make([]calendarEventDTO, 0, len(events))
	for _, e := range events {
		items = append(items, toCalendarEventDTO(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": items,
		"count":  len(items),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.ConversationStats(r.Context(), s.currentUserID(r))
	if err != nil {
		s.logger.Error("stats query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_conversations":   stats.TotalConversations,
		"active":                stats.Active,
		"completed":             stats.Completed,
		"errors":                stats.Errors,
		"total_calendar_events": stats.TotalCalendarEvents,
		"total_messages":        stats.TotalMessages,
	})
}

func (s *Server) currentUserID(r *http.Request) *string {
	user := s.currentUser(r)
	if user == nil {
		return nil
	}
	return &user.ID
}

type conversationDTO struct {
	ID            string  `json:"id"`
	SessionID     string  `json:"session_id"`
	UserID        *string `json:"user_id,omitempty"`
	Status        string  `json:"status"`
	StartedAt     string  `json:"started_at"`
	EndedAt       *string `json:"ended_at,omitempty"`
	ClientIP      string  `json:"client_ip"`
	UserAgent     string  `json:"user_agent"`
	MessageCount  int     `json:"message_count"`
	EventsCreated int     `json:"events_created"`
}

func toConversationDTO(c repository.Conversation) conversationDTO {
	dto := conversationDTO{
		ID:            c.ID,
		SessionID:     c.SessionID,
		UserID:        c.UserID,
		Status:        string(c.Status),
		StartedAt:     c.StartedAt.UTC().Format(time.RFC3339),
		ClientIP:      c.ClientIP,
		UserAgent:     c.UserAgent,
		MessageCount:  c.MessageCount,
		EventsCreated: c.EventsCreated,
	}
	if c.EndedAt != nil {
		ended := c.EndedAt.UTC().Format(time.RFC3339)
		dto.EndedAt = &ended
	}
	return dto
}

type messageDTO struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func toMessageDTO(m repository.Message) messageDTO {
	return messageDTO{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
	}
}

type calendarEventDTO struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	EventID        string `json:"event_id"`
	Summary        string `json:"summary"`
	Description    string `json:"description,omitempty"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	AttendeeName   string `json:"attendee_name,omitempty"`
	HTMLLink       string `json:"html_link,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toCalendarEventDTO(e repository.CalendarEventRecord) calendarEventDTO {
	return calendarEventDTO{
		ID:             e.ID,
		ConversationID: e.ConversationID,
		EventID:        e.ProviderEventID,
		Summary:        e.Summary,
		Description:    e.Description,
		StartTime:      e.StartTime.UTC().Format(time.RFC3339),
		EndTime:        e.EndTime.UTC().Format(time.RFC3339),
		AttendeeName:   e.AttendeeName,
		HTMLLink:       e.HTMLLink,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxPageLimit)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
