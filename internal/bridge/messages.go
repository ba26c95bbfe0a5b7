package bridge

import "encoding/json"

// Client to server frame. Audio carries base64 PCM16LE mono 24kHz.
type clientMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio,omitempty"`
}

const (
	clientTypeStart = "start"
	clientTypeAudio = "audio"
	clientTypeStop  = "stop"
)

type statusMessage struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func newStatusMessage(status, message string) statusMessage {
	return statusMessage{Type: "status", Status: status, Message: message}
}

type audioMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

func newAudioMessage(audio string) audioMessage {
	return audioMessage{Type: "audio", Audio: audio}
}

type transcriptMessage struct {
	Type  string `json:"type"`
	Role  string `json:"role"`
	Delta string `json:"delta"`
}

func newTranscriptMessage(role, delta string) transcriptMessage {
	return transcriptMessage{Type: "transcript", Role: role, Delta: delta}
}

type transcriptDoneMessage struct {
	Type string `json:"type"`
	Role string `json:"role"`
	Text string `json:"text"`
}

func newTranscriptDoneMessage(role, text string) transcriptDoneMessage {
	return transcriptDoneMessage{Type: "transcript_done", Role: role, Text: text}
}

type functionResultMessage struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Result json.RawMessage `json:"result"`
}

func newFunctionResultMessage(name string, result json.RawMessage) functionResultMessage {
	return functionResultMessage{Type: "function_result", Name: name, Result: result}
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newErrorMessage(message string) errorMessage {
	return errorMessage{Type: "error", Message: message}
}

type authStatusMessage struct {
	Type          string `json:"type"`
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
}

func newAuthStatusMessage(authenticated bool, email string) authStatusMessage {
	return authStatusMessage{Type: "auth_status", Authenticated: authenticated, Email: email}
}
