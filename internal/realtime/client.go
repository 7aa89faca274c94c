// Package realtime is the WebSocket client for the conversational AI
// backend (OpenAI Realtime API). One Client serves one call.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultURL   = "wss://api.openai.com/v1/realtime"
	defaultModel = "gpt-4o-realtime-preview-2024-10-01"

	writeTimeout = 10 * time.Second
)

type Config struct {
	APIKey string
	Model  string

	// URL overrides the endpoint in tests.
	URL string

	DialTimeout time.Duration

	// ConnectAttempts bounds connection retries; backoff doubles from
	// ConnectBackoff between attempts.
	ConnectAttempts int
	ConnectBackoff  time.Duration

	PingInterval time.Duration
	PongTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.URL == "" {
		out.URL = defaultURL
	}
	if out.Model == "" {
		out.Model = defaultModel
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = 30 * time.Second
	}
	if out.ConnectAttempts <= 0 {
		out.ConnectAttempts = 4
	}
	if out.ConnectBackoff <= 0 {
		out.ConnectBackoff = 500 * time.Millisecond
	}
	if out.PingInterval <= 0 {
		out.PingInterval = 20 * time.Second
	}
	if out.PongTimeout <= 0 {
		out.PongTimeout = 10 * time.Second
	}
	return out
}

// Client wraps the backend WebSocket. Reads happen from one goroutine via
// ReadEvent; writes are serialized internally.
type Client struct {
	cfg Config
	log *slog.Logger

	ws   *websocket.Conn
	wsMu sync.Mutex

	pongMu   sync.Mutex
	lastPong time.Time
}

// Dial connects with bounded retries and exponential backoff. It returns
// an error only after every attempt fails; the caller treats that as a
// terminal session failure.
func Dial(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("realtime: api key is required")
	}

	url := fmt.Sprintf("%s?model=%s", cfg.URL, cfg.Model)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: cfg.DialTimeout}

	var lastErr error
	backoff := cfg.ConnectBackoff
	for attempt := 1; attempt <= cfg.ConnectAttempts; attempt++ {
		ws, resp, err := dialer.DialContext(ctx, url, header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err == nil {
			c := &Client{cfg: cfg, log: log, ws: ws, lastPong: time.Now()}
			ws.SetPongHandler(func(string) error {
				c.pongMu.Lock()
				c.lastPong = time.Now()
				c.pongMu.Unlock()
				return nil
			})
			if attempt > 1 {
				log.Info("realtime connected after retry", "attempt", attempt)
			}
			return c, nil
		}
		lastErr = err
		log.Warn("realtime connect failed", "attempt", attempt, "err", err)

		if attempt == cfg.ConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("realtime: connect failed after %d attempts: %w", cfg.ConnectAttempts, lastErr)
}

// StartPing probes liveness until ctx ends. A missed pong is logged as
// degradation; the read loop decides when the connection is actually dead.
func (c *Client) StartPing(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.writeControl(websocket.PingMessage); err != nil {
					c.log.Warn("realtime ping write failed", "err", err)
					return
				}
				c.pongMu.Lock()
				stale := time.Since(c.lastPong)
				c.pongMu.Unlock()
				if stale > c.cfg.PingInterval+c.cfg.PongTimeout {
					c.log.Warn("realtime pong overdue", "since_last_pong", stale)
				}
			}
		}
	}()
}

// ConfigureSession pushes instructions, VAD tuning, codec, and the tool
// schema for this call.
func (c *Client) ConfigureSession(sc SessionConfig) error {
	toolChoice := ""
	if len(sc.Tools) > 0 {
		toolChoice = "auto"
	}
	return c.sendJSON(sessionUpdateMsg{
		Type: msgSessionUpdate,
		Session: sessionPayload{
			TurnDetection: turnDetection{
				Type:              "server_vad",
				Threshold:         0.7,
				PrefixPaddingMs:   300,
				SilenceDurationMs: 700,
			},
			InputAudioFormat:        "g711_ulaw",
			OutputAudioFormat:       "g711_ulaw",
			Voice:                   sc.Voice,
			Instructions:            sc.Instructions,
			Modalities:              []string{"text", "audio"},
			Temperature:             sc.Temperature,
			InputAudioTranscription: transcriptionCfg{Model: "whisper-1"},
			Tools:                   sc.Tools,
			ToolChoice:              toolChoice,
		},
	})
}

// AppendAudio forwards one base64 u-law frame, unmodified.
func (c *Client) AppendAudio(payload string) error {
	return c.sendJSON(audioAppendMsg{Type: msgInputAudioAppend, Audio: payload})
}

// CreateResponse asks the model to speak. Sent once after session config
// so the greeting starts without waiting for caller speech, and again
// after each tool result.
func (c *Client) CreateResponse() error {
	return c.sendJSON(responseCreateMsg{Type: msgResponseCreate})
}

// TruncateAssistantItem cuts the in-flight response at the audio position
// the caller actually heard.
func (c *Client) TruncateAssistantItem(itemID string, audioEndMs int64) error {
	return c.sendJSON(itemTruncateMsg{
		Type:         msgItemTruncate,
		ItemID:       itemID,
		ContentIndex: 0,
		AudioEndMs:   audioEndMs,
	})
}

// SubmitToolOutput returns a function result to the conversation. The
// caller follows with CreateResponse to resume generation.
func (c *Client) SubmitToolOutput(callID, output string) error {
	return c.sendJSON(conversationItemMsg{
		Type: msgConversationItem,
		Item: functionCallItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	})
}

// ReadEvent blocks for the next server event. Call from a single goroutine.
func (c *Client) ReadEvent() (Event, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return Event{}, err
	}
	return decodeEvent(data)
}

func (c *Client) Close() error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	deadline := time.Now().Add(time.Second)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.ws.Close()
}

func (c *Client) sendJSON(v any) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

func (c *Client) writeControl(messageType int) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	return c.ws.WriteControl(messageType, nil, time.Now().Add(writeTimeout))
}
