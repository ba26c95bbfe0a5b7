package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/voxcal/voxcal/internal/realtime"
)

const eventChannelCapacity = 256

type OpenAIConfig struct {
	URL            string
	APIKey         string
	ConnectTimeout time.Duration
}

type OpenAIClient struct {
	url            string
	apiKey         string
	connectTimeout time.Duration
	dialer         *websocket.Dialer
}

func NewOpenAIClient(cfg OpenAIConfig) realtime.Client {
	return &OpenAIClient{
		url:            cfg.URL,
		apiKey:         cfg.APIKey,
		connectTimeout: cfg.ConnectTimeout,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.ConnectTimeout,
		},
	}
}

func (c *OpenAIClient) Open(ctx context.Context, cfg realtime.SessionConfig) (realtime.Session, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := c.dialer.DialContext(dialCtx, c.url, header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		if isTimeoutError(err) || dialCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", realtime.ErrConnectionTimeout, err)
		}
		if resp != nil {
			return nil, fmt.Errorf("%w: status %d", realtime.ErrConnectionRejected, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", realtime.ErrConnectionRejected, err)
	}

	s := &openAISession{
		conn:   conn,
		events: make(chan realtime.Event, eventChannelCapacity),
	}
	if err := s.writeJSON(sessionUpdatePayload(cfg)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: send session config: %v", realtime.ErrConnectionRejected, err)
	}
	go s.receiveLoop()
	return s, nil
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sessionUpdatePayload(cfg realtime.SessionConfig) map[string]any {
	tools := make([]map[string]any, 0, len(cfg.Tools))
	for _, t := range cfg.Tools {
		tools = append(tools, map[string]any{
			"type":        "function",
			"name":        t.Name,
			"description": t.Description,
			"parameters": map[string]any{
				"type":       "object",
				"properties": t.Parameters,
				"required":   t.Required,
			},
		})
	}
	return map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"modalities":          []string{"text", "audio"},
			"instructions":        cfg.Instructions,
			"voice":               cfg.Voice,
			"input_audio_format":  "pcm16",
			"output_audio_format": "pcm16",
			"input_audio_transcription": map[string]any{
				"model": "whisper-1",
			},
			"turn_detection": map[string]any{
				"type":                "server_vad",
				"threshold":           0.5,
				"prefix_padding_ms":   300,
				"silence_duration_ms": 500,
			},
			"tools":       tools,
			"tool_choice": "auto",
		},
	}
}

type openAISession struct {
	conn   *websocket.Conn
	events chan realtime.Event

	writeMu sync.Mutex
	closed  atomic.Bool
	ready   atomic.Bool
}

func (s *openAISession) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed.Load() {
		return websocket.ErrCloseSent
	}
	return s.conn.WriteJSON(v)
}

func (s *openAISession) SendAudio(audio string) error {
	// Drop, don't error: frames arriving before the session is ready or
	// after close belong to a stream that has no use for late delivery.
	if s.closed.Load() || !s.ready.Load() {
		return nil
	}
	return s.writeJSON(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": audio,
	})
}

func (s *openAISession) Commit() error {
	if s.closed.Load() {
		return nil
	}
	return s.writeJSON(map[string]any{"type": "input_audio_buffer.commit"})
}

func (s *openAISession) SendFunctionResult(callID string, result []byte) error {
	return s.writeJSON(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  string(result),
		},
	})
}

func (s *openAISession) CreateResponse() error {
	return s.writeJSON(map[string]any{"type": "response.create"})
}

func (s *openAISession) Events() <-chan realtime.Event {
	return s.events
}

func (s *openAISession) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}

// rawEvent covers the subset of the upstream wire protocol the session
// surfaces. Unknown event types are skipped with a debug log.
type rawEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Transcript string `json:"transcript"`
	CallID     string `json:"call_id"`
	Error      struct {
		Message string `json:"message"`
	} `json:"error"`
	Response struct {
		Output []rawOutputItem `json:"output"`
	} `json:"response"`
}

type rawOutputItem struct {
	Type      string `json:"type"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func (s *openAISession) receiveLoop() {
	defer close(s.events)
	defer func() {
		_ = s.Close()
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				slog.Info("upstream connection closed", "error", err)
			}
			return
		}
		var raw rawEvent
		if err := json.Unmarshal(data, &raw); err != nil {
			slog.Warn("malformed upstream event; skipping", "error", err)
			continue
		}
		for _, ev := range translate(raw) {
			switch ev.Kind {
			case realtime.EventConnected:
				s.ready.Store(true)
			case realtime.EventSessionReady:
				// Configuration acknowledged; ask for the greeting turn
				// so the assistant speaks first.
				if err := s.CreateResponse(); err != nil {
					slog.Warn("failed to request greeting response", "error", err)
				}
			}
			s.events <- ev
		}
	}
}

// translate maps one raw upstream event to zero or more typed events.
// response.done fans out into one function-call event per output item
// followed by the response-done marker itself.
func translate(raw rawEvent) []realtime.Event {
	switch raw.Type {
	case "session.created":
		return []realtime.Event{{Kind: realtime.EventConnected}}
	case "session.updated":
		return []realtime.Event{{Kind: realtime.EventSessionReady}}
	case "input_audio_buffer.speech_started":
		return []realtime.Event{{Kind: realtime.EventSpeechStarted}}
	case "input_audio_buffer.speech_stopped":
		return []realtime.Event{{Kind: realtime.EventSpeechStopped}}
	case "response.created":
		return []realtime.Event{{Kind: realtime.EventResponseStarted}}
	case "response.audio.delta":
		return []realtime.Event{{Kind: realtime.EventAudioDelta, Audio: raw.Delta}}
	case "response.audio_transcript.delta":
		return []realtime.Event{{Kind: realtime.EventTranscriptDelta, Role: "assistant", Text: raw.Delta}}
	case "response.audio_transcript.done":
		return []realtime.Event{{Kind: realtime.EventTranscriptDone, Role: "assistant", Text: raw.Transcript}}
	case "conversation.item.input_audio_transcription.completed":
		return []realtime.Event{{Kind: realtime.EventTranscriptDone, Role: "user", Text: raw.Transcript}}
	case "response.function_call_arguments.delta":
		return []realtime.Event{{Kind: realtime.EventFunctionCallArgsDelta, CallID: raw.CallID, Args: raw.Delta}}
	case "response.done":
		events := make([]realtime.Event, 0, len(raw.Response.Output)+1)
		for _, item := range raw.Response.Output {
			if item.Type != "function_call" {
				continue
			}
			events = append(events, realtime.Event{
				Kind:   realtime.EventFunctionCallDone,
				CallID: item.CallID,
				Name:   item.Name,
				Args:   item.Arguments,
			})
		}
		return append(events, realtime.Event{Kind: realtime.EventResponseDone})
	case "error":
		return []realtime.Event{{Kind: realtime.EventError, Message: raw.Error.Message}}
	default:
		slog.Debug("ignoring upstream event", "type", raw.Type)
		return nil
	}
}
