package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voxcal/voxcal/internal/calendar"
	"github.com/voxcal/voxcal/internal/realtime"
	"github.com/voxcal/voxcal/internal/repository"
)

var errConnClosed = errors.New("connection closed")

type mockConn struct {
	frames chan []byte
	done   chan struct{}

	mu       sync.Mutex
	written  []any
	closed   bool
	doneOnce sync.Once
}

func newMockConn() *mockConn {
	return &mockConn{
		frames: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func (c *mockConn) ReadMessage() (int, []byte, error) {
	select {
	case data, ok := <-c.frames:
		if !ok {
			return 0, nil, errConnClosed
		}
		return 1, data, nil
	case <-c.done:
		return 0, nil, errConnClosed
	}
}

func (c *mockConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	c.written = append(c.written, v)
	return nil
}

func (c *mockConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.doneOnce.Do(func() { close(c.done) })
	return nil
}

func (c *mockConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.written))
	copy(out, c.written)
	return out
}

type sentFunctionResult struct {
	callID string
	result []byte
}

type mockSession struct {
	events chan realtime.Event

	mu              sync.Mutex
	audio           []string
	commits         int
	functionResults []sentFunctionResult
	responses       int
	finishOnce      sync.Once
}

func newMockSession() *mockSession {
	return &mockSession{events: make(chan realtime.Event, 64)}
}

func (s *mockSession) emit(ev realtime.Event) { s.events <- ev }

// finish ends the upstream event stream, as if the remote closed.
func (s *mockSession) finish() {
	s.finishOnce.Do(func() { close(s.events) })
}

func (s *mockSession) SendAudio(audio string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, audio)
	return nil
}

func (s *mockSession) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	return nil
}

func (s *mockSession) SendFunctionResult(callID string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.functionResults = append(s.functionResults, sentFunctionResult{callID: callID, result: result})
	return nil
}

func (s *mockSession) CreateResponse() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses++
	return nil
}

func (s *mockSession) Events() <-chan realtime.Event { return s.events }

func (s *mockSession) Close() error {
	s.finish()
	return nil
}

func (s *mockSession) audioFrames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.audio))
	copy(out, s.audio)
	return out
}

func (s *mockSession) sentResults() []sentFunctionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sentFunctionResult, len(s.functionResults))
	copy(out, s.functionResults)
	return out
}

func (s *mockSession) responseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responses
}

type mockRealtimeClient struct {
	session *mockSession
	openErr error
}

func (c *mockRealtimeClient) Open(_ context.Context, _ realtime.SessionConfig) (realtime.Session, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.session, nil
}

type mockScheduler struct {
	mu     sync.Mutex
	inputs []calendar.AddEventInput
	result *calendar.EventResult
	err    error
}

func (s *mockScheduler) AddEvent(_ context.Context, _ string, input calendar.AddEventInput) (*calendar.EventResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *mockScheduler) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inputs)
}

func (s *mockScheduler) calls() []calendar.AddEventInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]calendar.AddEventInput, len(s.inputs))
	copy(out, s.inputs)
	return out
}

type mockRepository struct {
	mu            sync.Mutex
	createErr     error
	conversations []repository.CreateConversationInput
	finalizations []repository.FinalizeConversationInput
	appended      []repository.AppendMessageInput
	eventRecords  []repository.RecordCalendarEventInput
}

func (r *mockRepository) CreateConversation(_ context.Context, input repository.CreateConversationInput) (*repository.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.conversations = append(r.conversations, input)
	return &repository.Conversation{
		ID:        "conv-1",
		SessionID: input.SessionID,
		UserID:    input.UserID,
		Status:    repository.ConversationStatusActive,
		StartedAt: input.StartedAt,
	}, nil
}

func (r *mockRepository) FinalizeConversation(_ context.Context, input repository.FinalizeConversationInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalizations = append(r.finalizations, input)
	return nil
}

func (r *mockRepository) GetConversation(_ context.Context, _ string) (*repository.Conversation, error) {
	return nil, nil
}

func (r *mockRepository) GetConversationBySessionID(_ context.Context, _ string) (*repository.Conversation, error) {
	return nil, nil
}

func (r *mockRepository) ListConversations(_ context.Context, _ repository.ListConversationsInput) ([]repository.Conversation, error) {
	return nil, nil
}

func (r *mockRepository) ConversationStats(_ context.Context, _ *string) (*repository.Stats, error) {
	return &repository.Stats{}, nil
}

func (r *mockRepository) AppendMessage(_ context.Context, input repository.AppendMessageInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended = append(r.appended, input)
	return nil
}

func (r *mockRepository) ListMessagesByConversationID(_ context.Context, _ string) ([]repository.Message, error) {
	return nil, nil
}

func (r *mockRepository) RecordCalendarEvent(_ context.Context, input repository.RecordCalendarEventInput) (*repository.CalendarEventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eventRecords = append(r.eventRecords, input)
	return &repository.CalendarEventRecord{ID: "evt-1", ConversationID: input.ConversationID}, nil
}

func (r *mockRepository) ListCalendarEvents(_ context.Context, _ repository.ListCalendarEventsInput) ([]repository.CalendarEventRecord, error) {
	return nil, nil
}

func (r *mockRepository) ListCalendarEventsByConversationID(_ context.Context, _ string) ([]repository.CalendarEventRecord, error) {
	return nil, nil
}

func (r *mockRepository) UpsertUserByEmail(_ context.Context, _ string) (*repository.User, error) {
	return nil, nil
}

func (r *mockRepository) GetUser(_ context.Context, _ string) (*repository.User, error) {
	return nil, nil
}

func (r *mockRepository) SaveUserToken(_ context.Context, _, _ string) error { return nil }

func (r *mockRepository) ClearUserToken(_ context.Context, _ string) error { return nil }

func (r *mockRepository) CreateAuthSession(_ context.Context, _ repository.AuthSession) error {
	return nil
}

func (r *mockRepository) GetUserByAuthToken(_ context.Context, _ string) (*repository.User, error) {
	return nil, nil
}

func (r *mockRepository) DeleteAuthSession(_ context.Context, _ string) error { return nil }

func (r *mockRepository) finalizationList() []repository.FinalizeConversationInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.FinalizeConversationInput, len(r.finalizations))
	copy(out, r.finalizations)
	return out
}

func (r *mockRepository) appendedMessages() []repository.AppendMessageInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.AppendMessageInput, len(r.appended))
	copy(out, r.appended)
	return out
}

func (r *mockRepository) recordedEvents() []repository.RecordCalendarEventInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.RecordCalendarEventInput, len(r.eventRecords))
	copy(out, r.eventRecords)
	return out
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
