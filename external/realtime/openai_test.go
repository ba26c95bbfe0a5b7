package realtime

import (
	"encoding/json"
	"testing"

	"github.com/voxcal/voxcal/internal/realtime"
)

func decodeRaw(t *testing.T, payload string) rawEvent {
	t.Helper()
	var raw rawEvent
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("failed to decode raw event: %v", err)
	}
	return raw
}

func TestTranslate_AudioDelta(t *testing.T) {
	raw := decodeRaw(t, `{"type":"response.audio.delta","delta":"UklGRg=="}`)
	events := translate(raw)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Kind != realtime.EventAudioDelta || events[0].Audio != "UklGRg==" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestTranslate_TranscriptRoles(t *testing.T) {
	assistant := translate(decodeRaw(t, `{"type":"response.audio_transcript.done","transcript":"See you at three."}`))
	if assistant[0].Kind != realtime.EventTranscriptDone || assistant[0].Role != "assistant" {
		t.Fatalf("unexpected assistant event: %+v", assistant[0])
	}
	if assistant[0].Text != "See you at three." {
		t.Fatalf("unexpected transcript text: %q", assistant[0].Text)
	}

	user := translate(decodeRaw(t, `{"type":"conversation.item.input_audio_transcription.completed","transcript":"Book a meeting tomorrow."}`))
	if user[0].Kind != realtime.EventTranscriptDone || user[0].Role != "user" {
		t.Fatalf("unexpected user event: %+v", user[0])
	}
}

func TestTranslate_ResponseDoneWithFunctionCall(t *testing.T) {
	raw := decodeRaw(t, `{
		"type": "response.done",
		"response": {
			"output": [
				{"type": "message"},
				{"type": "function_call", "call_id": "call_1", "name": "add_calendar_event",
				 "arguments": "{\"summary\":\"Team Standup\",\"start_time\":\"2024-01-15T14:00:00\"}"}
			]
		}
	}`)
	events := translate(raw)
	if len(events) != 2 {
		t.Fatalf("expected function call + done marker, got %d events", len(events))
	}
	call := events[0]
	if call.Kind != realtime.EventFunctionCallDone || call.CallID != "call_1" || call.Name != "add_calendar_event" {
		t.Fatalf("unexpected call event: %+v", call)
	}
	if events[1].Kind != realtime.EventResponseDone {
		t.Fatalf("expected response done marker, got %+v", events[1])
	}
}

func TestTranslate_ResponseDoneWithoutCalls(t *testing.T) {
	events := translate(decodeRaw(t, `{"type":"response.done","response":{"output":[{"type":"message"}]}}`))
	if len(events) != 1 || events[0].Kind != realtime.EventResponseDone {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestTranslate_ArgumentFragments(t *testing.T) {
	events := translate(decodeRaw(t, `{"type":"response.function_call_arguments.delta","call_id":"call_2","delta":"{\"sum"}`))
	if events[0].Kind != realtime.EventFunctionCallArgsDelta || events[0].CallID != "call_2" || events[0].Args != `{"sum` {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestTranslate_Error(t *testing.T) {
	events := translate(decodeRaw(t, `{"type":"error","error":{"message":"rate limited"}}`))
	if events[0].Kind != realtime.EventError || events[0].Message != "rate limited" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestTranslate_UnknownTypeIgnored(t *testing.T) {
	if events := translate(decodeRaw(t, `{"type":"rate_limits.updated"}`)); events != nil {
		t.Fatalf("expected unknown event to be dropped, got %+v", events)
	}
}

func TestSessionUpdatePayload(t *testing.T) {
	payload := sessionUpdatePayload(realtime.SessionConfig{
		Instructions: "You schedule meetings.",
		Voice:        "alloy",
		Tools: []realtime.Tool{{
			Name:        "add_calendar_event",
			Description: "Create a calendar event.",
			Parameters: map[string]any{
				"summary": map[string]any{"type": "string"},
			},
			Required: []string{"summary", "start_time"},
		}},
	})
	if payload["type"] != "session.update" {
		t.Fatalf("unexpected payload type: %v", payload["type"])
	}
	session, ok := payload["session"].(map[string]any)
	if !ok {
		t.Fatal("session payload missing")
	}
	if session["voice"] != "alloy" || session["input_audio_format"] != "pcm16" {
		t.Fatalf("unexpected session payload: %+v", session)
	}
	tools, ok := session["tools"].([]map[string]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("unexpected tools: %+v", session["tools"])
	}
	if tools[0]["name"] != "add_calendar_event" {
		t.Fatalf("unexpected tool: %+v", tools[0])
	}
}
