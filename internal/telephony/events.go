package telephony

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// EventType identifies media-stream websocket payload variants.
type EventType string

const (
	EventStart     EventType = "start"
	EventMedia     EventType = "media"
	EventMark      EventType = "mark"
	EventStop      EventType = "stop"
	EventConnected EventType = "connected"
)

var ErrUnsupportedEvent = errors.New("unsupported telephony event")

type Envelope struct {
	Event EventType `json:"event"`
}

// StartEvent announces a new media stream for a call.
type StartEvent struct {
	Event EventType `json:"event"`
	Start struct {
		StreamSID string `json:"streamSid"`
		CallSID   string `json:"callSid"`
	} `json:"start"`
}

// MediaEvent carries one base64-encoded audio chunk from the caller.
// The provider serializes the timestamp as a decimal string.
type MediaEvent struct {
	Event EventType `json:"event"`
	Media struct {
		Timestamp string `json:"timestamp"`
		Payload   string `json:"payload"`
		Chunk     string `json:"chunk"`
		Track     string `json:"track"`
	} `json:"media"`
}

// TimestampMs parses the media timestamp; the raw value is a string on the wire.
func (m MediaEvent) TimestampMs() (int64, error) {
	ts, err := strconv.ParseInt(m.Media.Timestamp, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("media timestamp %q: %w", m.Media.Timestamp, err)
	}
	return ts, nil
}

// MarkEvent acknowledges playback of a previously sent audio chunk.
type MarkEvent struct {
	Event EventType `json:"event"`
	Mark  struct {
		Name string `json:"name"`
	} `json:"mark"`
}

// StopEvent signals the provider closed the media stream.
type StopEvent struct {
	Event EventType `json:"event"`
}

// OutboundMedia is an assistant audio chunk addressed to the active stream.
type OutboundMedia struct {
	Event     EventType `json:"event"`
	StreamSID string    `json:"streamSid"`
	Media     struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

func NewOutboundMedia(streamSID, payload string) OutboundMedia {
	out := OutboundMedia{Event: EventMedia, StreamSID: streamSID}
	out.Media.Payload = payload
	return out
}

// OutboundMark asks the provider to acknowledge once the preceding audio played out.
type OutboundMark struct {
	Event     EventType `json:"event"`
	StreamSID string    `json:"streamSid"`
	Mark      struct {
		Name string `json:"name"`
	} `json:"mark"`
}

func NewOutboundMark(streamSID, name string) OutboundMark {
	out := OutboundMark{Event: EventMark, StreamSID: streamSID}
	out.Mark.Name = name
	return out
}

// ParseEvent decodes one inbound media-stream message.
func ParseEvent(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Event {
	case EventStart:
		var msg StartEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Start.StreamSID == "" {
			return nil, errors.New("invalid start event: missing streamSid")
		}
		return msg, nil
	case EventMedia:
		var msg MediaEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case EventMark:
		var msg MarkEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case EventStop:
		var msg StopEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedEvent
	}
}
