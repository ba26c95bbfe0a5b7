package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxcal/voxcal/internal/calendar"
	"github.com/voxcal/voxcal/internal/realtime"
	"github.com/voxcal/voxcal/internal/repository"
)

// ClientConn is the browser side of the bridge. Implementations must make
// WriteJSON safe for concurrent use; ReadMessage is only ever called from a
// single goroutine.
type ClientConn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// SessionInfo describes the browser connection a bridge serves.
type SessionInfo struct {
	UserID        *string
	UserEmail     string
	Authenticated bool
	ClientIP      string
	UserAgent     string
}

// Deps carries everything a bridge needs beyond its two connections.
type Deps struct {
	Realtime  realtime.Client
	Scheduler calendar.Scheduler
	Repo      repository.Repository
	Voice     string
	Timezone  string
	Location  *time.Location
}

// Bridge relays one browser audio session to one upstream realtime session.
// The browser flow and the upstream flow run on separate goroutines so a
// stall on one side never blocks the other.
type Bridge struct {
	id   string
	conn ClientConn
	deps Deps
	info SessionInfo

	mu    sync.Mutex
	phase Phase

	session realtime.Session
	calls   *callAccumulator
	logger  *slog.Logger

	conversationID string

	relayStarted atomic.Bool
	closed       atomic.Bool
	closeOnce    sync.Once
}

func New(id string, conn ClientConn, deps Deps, info SessionInfo) *Bridge {
	return &Bridge{
		id:     id,
		conn:   conn,
		deps:   deps,
		info:   info,
		phase:  PhaseInit,
		calls:  newCallAccumulator(),
		logger: slog.Default().With("session_id", id),
	}
}

func (b *Bridge) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// transition moves the bridge to next when the edge is legal. Illegal edges
// are dropped rather than treated as fatal: upstream turn signals can arrive
// for phases the browser never entered, e.g. the greeting response before
// the client sends start.
func (b *Bridge) transition(next Phase) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.phase.canTransitionTo(next) {
		b.logger.Debug("phase transition skipped", "from", string(b.phase), "to", string(next))
		return false
	}
	b.phase = next
	return true
}

func (b *Bridge) forcePhase(next Phase) {
	b.mu.Lock()
	b.phase = next
	b.mu.Unlock()
}

// Run drives the bridge until either side disconnects. It always returns
// with the conversation finalized and both connections closed.
func (b *Bridge) Run(ctx context.Context) {
	b.logger.Info("bridge session started",
		"authenticated", b.info.Authenticated,
		"client_ip", b.info.ClientIP)

	b.createConversation(ctx)

	b.send(newAuthStatusMessage(b.info.Authenticated, b.info.UserEmail))
	b.transition(PhaseConnecting)

	session, err := b.deps.Realtime.Open(ctx, newSessionConfig(time.Now().In(b.deps.Location), b.deps.Timezone, b.deps.Voice))
	if err != nil {
		b.logger.Error("upstream connection failed", "error", err)
		b.fail("Failed to connect to voice service")
		return
	}
	b.session = session

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.browserLoop()
	}()

	b.eventLoop()

	b.shutdown(PhaseClosed, repository.ConversationStatusCompleted)
	wg.Wait()
	b.logger.Info("bridge session ended")
}

// browserLoop reads client frames until the socket errors. A read error is
// the normal end of a session: the browser tab closed or the network went
// away.
func (b *Bridge) browserLoop() {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			b.logger.Debug("browser read ended", "error", err)
			b.shutdown(PhaseClosed, repository.ConversationStatusCompleted)
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Debug("malformed client frame dropped", "error", err)
			continue
		}
		b.handleClientMessage(msg)
	}
}

func (b *Bridge) handleClientMessage(msg clientMessage) {
	switch msg.Type {
	case clientTypeStart:
		// Duplicate start is a no-op; the relay is already live.
		if !b.relayStarted.CompareAndSwap(false, true) {
			return
		}
		b.transition(PhaseListening)
		b.send(newStatusMessage("listening", "Listening"))
	case clientTypeAudio:
		if !b.relayStarted.Load() || b.session == nil {
			return
		}
		if err := b.session.SendAudio(msg.Audio); err != nil {
			b.logger.Debug("audio frame dropped", "error", err)
		}
	case clientTypeStop:
		if b.session == nil {
			return
		}
		if err := b.session.Commit(); err != nil {
			b.logger.Debug("audio commit failed", "error", err)
		}
	default:
		b.logger.Debug("unknown client message type", "message_type", msg.Type)
	}
}

// eventLoop relays upstream events to the browser in arrival order. It
// returns when the upstream session closes its event channel.
func (b *Bridge) eventLoop() {
	for ev := range b.session.Events() {
		switch ev.Kind {
		case realtime.EventConnected:
			b.send(newStatusMessage("connected", "Connected to voice service"))
		case realtime.EventSessionReady:
			b.transition(PhaseReady)
			b.send(newStatusMessage("ready", "Voice service ready"))
		case realtime.EventSpeechStarted:
			if b.transition(PhaseListening) {
				b.send(newStatusMessage("listening", "Listening"))
			}
		case realtime.EventSpeechStopped, realtime.EventResponseStarted:
			if b.transition(PhaseSpeaking) {
				b.send(newStatusMessage("speaking", "Assistant speaking"))
			}
		case realtime.EventAudioDelta:
			b.send(newAudioMessage(ev.Audio))
		case realtime.EventTranscriptDelta:
			b.send(newTranscriptMessage(ev.Role, ev.Text))
		case realtime.EventTranscriptDone:
			b.send(newTranscriptDoneMessage(ev.Role, ev.Text))
			b.persistMessage(ev.Role, ev.Text)
		case realtime.EventFunctionCallArgsDelta:
			b.calls.append(ev.CallID, ev.Args)
		case realtime.EventFunctionCallDone:
			args := b.calls.finalize(ev.CallID, ev.Args)
			b.dispatchFunctionCall(ev.CallID, ev.Name, args)
		case realtime.EventResponseDone:
			if b.transition(PhaseListening) {
				b.send(newStatusMessage("listening", "Listening"))
			}
		case realtime.EventError:
			b.logger.Warn("upstream error event", "message", ev.Message)
			b.send(newErrorMessage(ev.Message))
		}
	}
}

// dispatchFunctionCall executes one completed function call and feeds the
// result back to both sides. The scheduler call runs on a background context
// so a browser disconnect mid-flight cannot abort an event the assistant
// already committed to creating.
func (b *Bridge) dispatchFunctionCall(callID, name, args string) {
	b.logger.Info("function call received", "name", name, "call_id", callID)

	result := b.executeFunctionCall(name, args)
	if b.closed.Load() {
		b.logger.Debug("function result discarded after close", "name", name)
		return
	}

	b.send(newFunctionResultMessage(name, result))
	if err := b.session.SendFunctionResult(callID, result); err != nil {
		b.logger.Warn("function result relay failed", "error", err)
		return
	}
	if err := b.session.CreateResponse(); err != nil {
		b.logger.Warn("response request after function call failed", "error", err)
	}
}

type functionCallArgs struct {
	Summary      string `json:"summary"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Description  string `json:"description"`
	AttendeeName string `json:"attendee_name"`
}

func (b *Bridge) executeFunctionCall(name, args string) json.RawMessage {
	if name != functionAddCalendarEvent {
		return mustMarshal(map[string]any{"error": fmt.Sprintf("Unknown function: %s", name)})
	}

	var input functionCallArgs
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return mustMarshal(map[string]any{"success": false, "error": "Invalid function arguments"})
	}
	if input.Summary == "" || input.StartTime == "" {
		return mustMarshal(map[string]any{"success": false, "error": "Missing required fields: summary and start_time"})
	}
	if b.info.UserID == nil {
		return mustMarshal(map[string]any{"success": false, "error": "Google Calendar not authenticated. Please connect your calendar first."})
	}

	event, err := b.deps.Scheduler.AddEvent(context.Background(), *b.info.UserID, calendar.AddEventInput{
		Summary:      input.Summary,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Description:  input.Description,
		AttendeeName: input.AttendeeName,
	})
	if err != nil {
		b.logger.Warn("calendar event creation failed", "error", err)
		return mustMarshal(map[string]any{"success": false, "error": err.Error()})
	}

	b.recordCalendarEvent(input, event)

	return mustMarshal(map[string]any{
		"success":   true,
		"event_id":  event.ProviderEventID,
		"summary":   event.Summary,
		"start":     event.Start,
		"end":       event.End,
		"html_link": event.HTMLLink,
		"message":   event.Message,
	})
}

func (b *Bridge) recordCalendarEvent(input functionCallArgs, event *calendar.EventResult) {
	if b.conversationID == "" || b.closed.Load() {
		return
	}
	start, end, err := calendar.ResolveTimes(input.StartTime, input.EndTime, b.deps.Location)
	if err != nil {
		b.logger.Warn("calendar event record skipped", "error", err)
		return
	}
	_, err = b.deps.Repo.RecordCalendarEvent(context.Background(), repository.RecordCalendarEventInput{
		ConversationID:  b.conversationID,
		ProviderEventID: event.ProviderEventID,
		Summary:         event.Summary,
		Description:     input.Description,
		StartTime:       start,
		EndTime:         end,
		AttendeeName:    input.AttendeeName,
		HTMLLink:        event.HTMLLink,
	})
	if err != nil {
		b.logger.Warn("calendar event record failed", "error", err)
	}
}

func (b *Bridge) createConversation(ctx context.Context) {
	conv, err := b.deps.Repo.CreateConversation(ctx, repository.CreateConversationInput{
		SessionID: b.id,
		UserID:    b.info.UserID,
		ClientIP:  b.info.ClientIP,
		UserAgent: b.info.UserAgent,
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		// The session still works without history; record nothing.
		b.logger.Warn("conversation create failed", "error", err)
		return
	}
	b.conversationID = conv.ID
}

// persistMessage stores one finalized transcript line. Persistence is off
// the relay path: a slow database write must not delay audio.
func (b *Bridge) persistMessage(role, content string) {
	if b.conversationID == "" || content == "" {
		return
	}
	conversationID := b.conversationID
	go func() {
		err := b.deps.Repo.AppendMessage(context.Background(), repository.AppendMessageInput{
			ConversationID: conversationID,
			Role:           role,
			Content:        content,
			Timestamp:      time.Now().UTC(),
		})
		if err != nil {
			b.logger.Warn("message persist failed", "error", err)
		}
	}()
}

// send writes one frame to the browser. Write failures are logged and
// swallowed; the read loop notices the dead socket and tears down.
func (b *Bridge) send(v any) {
	if b.closed.Load() {
		return
	}
	if err := b.conn.WriteJSON(v); err != nil {
		b.logger.Debug("browser write failed", "error", err)
	}
}

// fail reports a fatal error to the browser once, then tears down with the
// conversation marked errored.
func (b *Bridge) fail(message string) {
	b.send(newErrorMessage(message))
	b.forcePhase(PhaseError)
	b.shutdown(PhaseClosed, repository.ConversationStatusError)
}

// shutdown releases both connections and finalizes the conversation exactly
// once, regardless of which side triggered it.
func (b *Bridge) shutdown(final Phase, status repository.ConversationStatus) {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.forcePhase(final)

		if b.conversationID != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := b.deps.Repo.FinalizeConversation(ctx, repository.FinalizeConversationInput{
				ConversationID: b.conversationID,
				Status:         status,
				EndedAt:        time.Now().UTC(),
			})
			if err != nil {
				b.logger.Warn("conversation finalize failed", "error", err)
			}
		}

		if b.session != nil {
			if err := b.session.Close(); err != nil {
				b.logger.Debug("upstream close failed", "error", err)
			}
		}
		if err := b.conn.Close(); err != nil {
			b.logger.Debug("browser close failed", "error", err)
		}
	})
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"success":false,"error":"internal encoding failure"}`)
	}
	return data
}
