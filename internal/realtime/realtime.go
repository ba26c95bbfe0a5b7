package realtime

import (
	"context"
	"errors"
)

var (
	// ErrConnectionTimeout is returned when the upstream endpoint does not
	// accept the connection within the configured bound.
	ErrConnectionTimeout = errors.New("upstream connection timed out")
	// ErrConnectionRejected is returned when the upstream endpoint refuses
	// the connection or the session configuration.
	ErrConnectionRejected = errors.New("upstream rejected connection")
)

type EventKind string

const (
	EventConnected             EventKind = "connected"
	EventSessionReady          EventKind = "session_ready"
	EventSpeechStarted         EventKind = "speech_started"
	EventSpeechStopped         EventKind = "speech_stopped"
	EventResponseStarted       EventKind = "response_started"
	EventResponseDone          EventKind = "response_done"
	EventAudioDelta            EventKind = "audio_delta"
	EventTranscriptDelta       EventKind = "transcript_delta"
	EventTranscriptDone        EventKind = "transcript_done"
	EventFunctionCallArgsDelta EventKind = "function_call_args_delta"
	EventFunctionCallDone      EventKind = "function_call_done"
	EventError                 EventKind = "error"
)

// Event is one typed upstream event. Fields are populated per kind:
// audio deltas carry Audio (base64), transcript events carry Role and Text,
// function-call events carry CallID/Name/Args.
type Event struct {
	Kind    EventKind
	Role    string
	Text    string
	Audio   string
	CallID  string
	Name    string
	Args    string
	Message string
}

type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Required    []string
}

type SessionConfig struct {
	Instructions string
	Voice        string
	Tools        []Tool
}

// Session is one live upstream connection. Events delivers typed events in
// arrival order until the connection closes; the channel is closed on exit.
// A closed session cannot be resumed, only reopened.
type Session interface {
	// SendAudio forwards one base64 PCM16 frame. It drops the frame
	// silently when the connection is not writable: a late sample is worse
	// than a lost one in a continuous stream.
	SendAudio(audio string) error
	// Commit flushes the pending input audio buffer upstream.
	Commit() error
	SendFunctionResult(callID string, result []byte) error
	// CreateResponse asks the upstream to produce the next assistant turn.
	CreateResponse() error
	Events() <-chan Event
	Close() error
}

type Client interface {
	Open(ctx context.Context, cfg SessionConfig) (Session, error)
}
