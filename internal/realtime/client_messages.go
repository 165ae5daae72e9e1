package realtime

// Client-to-model messages. Field layouts follow the realtime API wire
// contract exactly; do not add omitempty to required fields.

// InputAudioAppend forwards one base64-encoded caller audio chunk.
type InputAudioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

func NewInputAudioAppend(audio string) InputAudioAppend {
	return InputAudioAppend{Type: "input_audio_buffer.append", Audio: audio}
}

// ItemTruncate cuts an in-flight assistant utterance at the played-out offset.
type ItemTruncate struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int64  `json:"audio_end_ms"`
}

func NewItemTruncate(itemID string, audioEndMs int64) ItemTruncate {
	return ItemTruncate{
		Type:       "conversation.item.truncate",
		ItemID:     itemID,
		AudioEndMs: audioEndMs,
	}
}

// FunctionOutputItem is the structured response to one model function call.
type FunctionOutputItem struct {
	Type string             `json:"type"`
	Item FunctionOutputBody `json:"item"`
}

type FunctionOutputBody struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

func NewFunctionOutput(callID, output string) FunctionOutputItem {
	return FunctionOutputItem{
		Type: "conversation.item.create",
		Item: FunctionOutputBody{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	}
}

// ResponseCreate asks the model to continue generating.
type ResponseCreate struct {
	Type string `json:"type"`
}

func NewResponseCreate() ResponseCreate {
	return ResponseCreate{Type: "response.create"}
}

// SessionUpdate replaces the session instructions and tool set.
type SessionUpdate struct {
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

type SessionConfig struct {
	Modalities        []string       `json:"modalities,omitempty"`
	Instructions      string         `json:"instructions,omitempty"`
	Voice             string         `json:"voice,omitempty"`
	InputAudioFormat  string         `json:"input_audio_format,omitempty"`
	OutputAudioFormat string         `json:"output_audio_format,omitempty"`
	Temperature       float64        `json:"temperature,omitempty"`
	TurnDetection     *TurnDetection `json:"turn_detection,omitempty"`
	Tools             []Tool         `json:"tools,omitempty"`
	ToolChoice        string         `json:"tool_choice,omitempty"`
}

type TurnDetection struct {
	Type string `json:"type"`
}

type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

func NewSessionUpdate(session SessionConfig) SessionUpdate {
	return SessionUpdate{Type: "session.update", Session: session}
}
