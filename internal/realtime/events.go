package realtime

import "encoding/json"

// Client-to-server message types.
const (
	msgSessionUpdate     = "session.update"
	msgInputAudioAppend  = "input_audio_buffer.append"
	msgResponseCreate    = "response.create"
	msgItemTruncate      = "conversation.item.truncate"
	msgConversationItem  = "conversation.item.create"
)

// Server event types the bridge reacts to.
const (
	EventAudioDelta          = "response.audio.delta"
	EventAudioTranscriptDone = "response.audio_transcript.done"
	EventInputTranscriptDone = "conversation.item.input_audio_transcription.completed"
	EventSpeechStarted       = "input_audio_buffer.speech_started"
	EventFunctionCallDone    = "response.function_call_arguments.done"
	EventError               = "error"
)

// Error codes with dedicated handling.
const (
	ErrCodeRateLimited    = "rate_limit_exceeded"
	ErrCodeSessionExpired = "session_expired"
)

// Event is the decoded server event. Only the fields for the event's type
// are populated.
type Event struct {
	Type string `json:"type"`

	// response.audio.delta
	Delta  string `json:"delta,omitempty"`
	ItemID string `json:"item_id,omitempty"`

	// transcript events
	Transcript string `json:"transcript,omitempty"`

	// response.function_call_arguments.done
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// error
	Error *APIError `json:"error,omitempty"`
}

type APIError struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SessionConfig parameterizes the session.update sent once the Twilio
// stream starts. Audio is G.711 u-law end to end so frames pass through
// untouched.
type SessionConfig struct {
	Instructions string
	Voice        string
	Temperature  float64
	Tools        []ToolDefinition
}

// ToolDefinition is a function tool exposed to the model. Parameters is a
// JSON-schema object.
type ToolDefinition struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type sessionUpdateMsg struct {
	Type    string         `json:"type"`
	Session sessionPayload `json:"session"`
}

type sessionPayload struct {
	TurnDetection           turnDetection    `json:"turn_detection"`
	InputAudioFormat        string           `json:"input_audio_format"`
	OutputAudioFormat       string           `json:"output_audio_format"`
	Voice                   string           `json:"voice"`
	Instructions            string           `json:"instructions"`
	Modalities              []string         `json:"modalities"`
	Temperature             float64          `json:"temperature"`
	InputAudioTranscription transcriptionCfg `json:"input_audio_transcription"`
	Tools                   []ToolDefinition `json:"tools,omitempty"`
	ToolChoice              string           `json:"tool_choice,omitempty"`
}

// Server VAD tuned less sensitive than default so line noise does not
// trigger false barge-ins.
type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

type transcriptionCfg struct {
	Model string `json:"model"`
}

type audioAppendMsg struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type responseCreateMsg struct {
	Type string `json:"type"`
}

type itemTruncateMsg struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int64  `json:"audio_end_ms"`
}

type conversationItemMsg struct {
	Type string           `json:"type"`
	Item functionCallItem `json:"item"`
}

type functionCallItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

func decodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}
