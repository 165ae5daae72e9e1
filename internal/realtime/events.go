package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType identifies server events from the realtime speech model.
type EventType string

const (
	EventAudioDelta    EventType = "response.audio.delta"
	EventSpeechStarted EventType = "input_audio_buffer.speech_started"
	EventFunctionDone  EventType = "response.function_call_arguments.done"
	EventError         EventType = "error"
)

type envelope struct {
	Type EventType `json:"type"`
}

// AudioDelta carries one base64-encoded chunk of assistant speech.
type AudioDelta struct {
	Type   EventType `json:"type"`
	Delta  string    `json:"delta"`
	ItemID string    `json:"item_id"`
}

// SpeechStarted signals the model's VAD detected the caller talking.
type SpeechStarted struct {
	Type EventType `json:"type"`
}

// FunctionCallDone delivers the complete arguments of a model tool call.
type FunctionCallDone struct {
	Type      EventType `json:"type"`
	Name      string    `json:"name"`
	CallID    string    `json:"call_id"`
	Arguments string    `json:"arguments"`
}

// ErrorEvent reports a model-side error; it does not terminate the session.
type ErrorEvent struct {
	Type  EventType `json:"type"`
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// UnknownEvent preserves the raw type tag for events outside the handled set.
type UnknownEvent struct {
	Type EventType
}

// ParseEvent decodes one inbound model message. Events outside the handled
// set come back as UnknownEvent, never as an error, so the pump can decide
// whether to log them.
func ParseEvent(raw []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case EventAudioDelta:
		var msg AudioDelta
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case EventSpeechStarted:
		var msg SpeechStarted
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case EventFunctionDone:
		var msg FunctionCallDone
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Name == "" {
			return nil, errors.New("invalid function call event: missing name")
		}
		return msg, nil
	case EventError:
		var msg ErrorEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return UnknownEvent{Type: env.Type}, nil
	}
}
