package telephony

import "encoding/json"

// Media Streams wire frames. Twilio sends JSON text frames over the
// /media-stream WebSocket; audio payloads are base64 G.711 u-law at 8kHz.
// Ref: https://www.twilio.com/docs/voice/media-streams/websocket-messages

const (
	StreamEventConnected = "connected"
	StreamEventStart     = "start"
	StreamEventMedia     = "media"
	StreamEventMark      = "mark"
	StreamEventStop      = "stop"
	StreamEventClear     = "clear"
)

// StreamFrame is the envelope for every inbound frame; only the fields for
// the frame's event are populated.
type StreamFrame struct {
	Event string `json:"event"`

	Start *StreamStart `json:"start,omitempty"`
	Media *StreamMedia `json:"media,omitempty"`
	Mark  *StreamMark  `json:"mark,omitempty"`
	Stop  *StreamStop  `json:"stop,omitempty"`
}

type StreamStart struct {
	StreamSid        string            `json:"streamSid"`
	AccountSid       string            `json:"accountSid"`
	CallSid          string            `json:"callSid"`
	CustomParameters map[string]string `json:"customParameters"`
}

type StreamMedia struct {
	// Timestamp is milliseconds since stream start, monotonically
	// increasing. The turn controller measures playback progress with it.
	Timestamp json.Number `json:"timestamp"`
	Payload   string      `json:"payload"`
}

type StreamMark struct {
	Name string `json:"name"`
}

type StreamStop struct {
	CallSid string `json:"callSid"`
}

// CallSidFromStart prefers the custom parameter set in our TwiML; the
// top-level callSid is a fallback for streams started without it.
func CallSidFromStart(s *StreamStart) string {
	if s == nil {
		return ""
	}
	if sid, ok := s.CustomParameters["CallSid"]; ok && sid != "" {
		return sid
	}
	return s.CallSid
}

// Outbound frames.

type OutboundMediaFrame struct {
	Event     string        `json:"event"`
	StreamSid string        `json:"streamSid"`
	Media     OutboundMedia `json:"media"`
}

type OutboundMedia struct {
	Payload string `json:"payload"`
}

type OutboundMarkFrame struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid"`
	Mark      OutboundMark `json:"mark"`
}

type OutboundMark struct {
	Name string `json:"name"`
}

// OutboundClearFrame flushes Twilio's buffered audio; sent on barge-in.
type OutboundClearFrame struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
}

func NewMediaFrame(streamSid, payload string) OutboundMediaFrame {
	return OutboundMediaFrame{Event: StreamEventMedia, StreamSid: streamSid, Media: OutboundMedia{Payload: payload}}
}

func NewMarkFrame(streamSid, name string) OutboundMarkFrame {
	return OutboundMarkFrame{Event: StreamEventMark, StreamSid: streamSid, Mark: OutboundMark{Name: name}}
}

func NewClearFrame(streamSid string) OutboundClearFrame {
	return OutboundClearFrame{Event: StreamEventClear, StreamSid: streamSid}
}
