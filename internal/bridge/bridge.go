// Package bridge relays duplex audio between a Twilio media stream and the
// realtime AI backend, one relay per call. It owns turn-taking, barge-in
// truncation, and tool dispatch; everything else is a collaborator.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"receptionist-platform/internal/calendar"
	"receptionist-platform/internal/callstore"
	"receptionist-platform/internal/notify"
	"receptionist-platform/internal/realtime"
	"receptionist-platform/internal/schedule"
	"receptionist-platform/internal/session"
	"receptionist-platform/internal/telephony"
	"receptionist-platform/pkg/logger"
)

type Handler struct {
	Sessions *session.Store
	Realtime realtime.Config
	Calendar calendar.Service
	Finder   schedule.Finder
	SMS      notify.SMSSender
	Store    callstore.Repo

	// GraceWindow suppresses barge-in right after stream start so the
	// greeting survives line noise.
	GraceWindow time.Duration

	// MaxCallDuration force-ends runaway calls.
	MaxCallDuration time.Duration

	// DaysAhead is the slot-search horizon offered to find_first_slot.
	DaysAhead int

	Voice       string
	Temperature float64

	Now func() time.Time
}

var errStreamStopped = errors.New("stream stopped before start frame")

// Twilio's stream client sends no browser Origin header; allow all.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) grace() time.Duration {
	if h.GraceWindow > 0 {
		return h.GraceWindow
	}
	return 3 * time.Second
}

func (h *Handler) maxDuration() time.Duration {
	if h.MaxCallDuration > 0 {
		return h.MaxCallDuration
	}
	return time.Hour
}

// HandleMediaStream upgrades the Twilio connection and runs the relay
// until the stream stops or the call dies.
func (h *Handler) HandleMediaStream(c *gin.Context) {
	log := logger.FromGin(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("media stream upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	h.run(c.Request.Context(), conn, log)
}

// run drives one call. The calling goroutine owns the Twilio read loop; a
// second goroutine owns the backend read loop.
func (h *Handler) run(ctx context.Context, twilio *websocket.Conn, log *slog.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Twilio repeats the CallSid only in the start frame, so consume
	// frames until it arrives before dialing the backend.
	streamSid, call, buffered, err := h.awaitStart(twilio, log)
	if err != nil {
		log.Warn("media stream ended before start frame", "err", err)
		return
	}
	log = log.With("call_sid", call.CallSid, "stream_sid", streamSid)

	ai, err := realtime.Dial(ctx, h.Realtime, log)
	if err != nil {
		log.Error("backend connect failed, ending call", "err", err)
		call.MarkFailed("backend connect failed: " + err.Error())
		log.Info("caller fallback", "line", apologyLine)
		return
	}
	defer ai.Close()
	ai.StartPing(ctx)

	voice := h.Voice
	if voice == "" {
		voice = "echo"
	}
	temp := h.Temperature
	if temp == 0 {
		temp = 0.8
	}
	if err := ai.ConfigureSession(realtime.SessionConfig{
		Instructions: instructionsFor(call.Business),
		Voice:        voice,
		Temperature:  temp,
		Tools:        toolDefinitions(),
	}); err != nil {
		log.Error("session configure failed", "err", err)
		call.MarkFailed("session configure failed")
		return
	}
	// Greet immediately; waiting for caller speech leaves dead air.
	if err := ai.CreateResponse(); err != nil {
		log.Error("greeting trigger failed", "err", err)
		call.MarkFailed("greeting trigger failed")
		return
	}

	tc := newTurnController(h.grace())
	tc.streamStarted(h.now())

	r := &relay{
		handler:   h,
		log:       log,
		twilio:    twilio,
		ai:        ai,
		call:      call,
		streamSid: streamSid,
		tc:        tc,
		cancel:    cancel,
	}

	var persistWG sync.WaitGroup
	if h.Store != nil {
		r.persist = make(chan persistOp, 64)
		persistWG.Add(1)
		go func() {
			defer persistWG.Done()
			r.persistLoop()
		}()
	}

	// Media frames that raced the start frame.
	for _, payload := range buffered {
		if err := ai.AppendAudio(payload); err != nil {
			log.Warn("buffered audio forward failed", "err", err)
			break
		}
	}

	killTimer := time.AfterFunc(h.maxDuration(), func() {
		log.Warn("max call duration reached, ending call")
		call.MarkFailed("exceeded max call duration")
		cancel()
		twilio.Close()
		ai.Close()
	})
	defer killTimer.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.backendLoop(ctx)
	}()

	r.twilioLoop(ctx)

	// Stream ended; tear down the backend side so the other loop exits.
	cancel()
	ai.Close()
	wg.Wait()
	if r.persist != nil {
		close(r.persist)
		persistWG.Wait()
	}
	log.Info("media stream closed")
}

// awaitStart reads frames until the start event. Media payloads seen
// before it are returned for forwarding once the backend is up.
func (h *Handler) awaitStart(twilio *websocket.Conn, log *slog.Logger) (string, *session.Call, []string, error) {
	var buffered []string
	for {
		_, data, err := twilio.ReadMessage()
		if err != nil {
			return "", nil, nil, err
		}
		var frame telephony.StreamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn("unparseable stream frame", "err", err)
			continue
		}
		switch frame.Event {
		case telephony.StreamEventStart:
			callSid := telephony.CallSidFromStart(frame.Start)
			call, ok := h.Sessions.Get(callSid)
			if !ok {
				// Stream without a webhook session; answer anyway so the
				// caller is not left in silence.
				log.Warn("no session for stream, creating one", "call_sid", callSid)
				call = &session.Call{CallSid: callSid, StartedAt: h.now()}
				h.Sessions.Put(call)
			}
			call.StreamSid = frame.Start.StreamSid
			return frame.Start.StreamSid, call, buffered, nil
		case telephony.StreamEventMedia:
			if frame.Media != nil {
				buffered = append(buffered, frame.Media.Payload)
			}
		case telephony.StreamEventStop:
			return "", nil, nil, errStreamStopped
		}
	}
}

type relay struct {
	handler   *Handler
	log       *slog.Logger
	twilio    *websocket.Conn
	ai        *realtime.Client
	call      *session.Call
	streamSid string
	tc        *turnController
	cancel    context.CancelFunc

	// twilioWriteMu serializes writes to the Twilio socket between the
	// backend loop (audio, marks) and barge-in clears.
	twilioWriteMu sync.Mutex

	// toolMu serializes tool dispatch per session.
	toolMu sync.Mutex

	// persist queues store writes for the writer goroutine so a slow
	// store never stalls the audio loops. Nil when there is no store.
	persist chan persistOp
}

// persistOp is one opportunistic store write queued off the audio path.
type persistOp struct {
	role     string
	text     string
	entities bool
}

// twilioLoop forwards caller audio to the backend in arrival order.
func (r *relay) twilioLoop(ctx context.Context) {
	for {
		_, data, err := r.twilio.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				r.log.Info("twilio stream disconnected", "err", err)
			}
			return
		}
		var frame telephony.StreamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			r.log.Warn("unparseable stream frame", "err", err)
			continue
		}

		switch frame.Event {
		case telephony.StreamEventMedia:
			if frame.Media == nil {
				continue
			}
			if ts, err := frame.Media.Timestamp.Int64(); err == nil {
				r.tc.mediaReceived(ts)
			}
			if err := r.ai.AppendAudio(frame.Media.Payload); err != nil {
				r.log.Error("audio forward failed", "err", err)
				return
			}
		case telephony.StreamEventMark:
			r.tc.markAcked()
		case telephony.StreamEventStop:
			r.log.Info("stream stopped")
			return
		}
	}
}

// backendLoop forwards AI audio to Twilio and reacts to backend events.
// Transcript persistence and extraction are opportunistic; they never
// block or abort the audio path.
func (r *relay) backendLoop(ctx context.Context) {
	for {
		ev, err := r.ai.ReadEvent()
		if err != nil {
			if ctx.Err() == nil {
				r.log.Error("backend read failed, ending call", "err", err)
				r.call.MarkFailed("backend connection lost")
				r.log.Info("caller fallback", "line", apologyLine)
				r.cancel()
				r.twilio.Close()
			}
			return
		}

		switch ev.Type {
		case realtime.EventAudioDelta:
			r.tc.audioDelta(ev.ItemID)
			if err := r.sendTwilioJSON(telephony.NewMediaFrame(r.streamSid, ev.Delta)); err != nil {
				r.log.Info("twilio closed while sending audio")
				return
			}
			if err := r.sendTwilioJSON(telephony.NewMarkFrame(r.streamSid, "responsePart")); err != nil {
				return
			}
			r.tc.markSent()

		case realtime.EventAudioTranscriptDone:
			if ev.Transcript != "" {
				r.recordTurn("assistant", ev.Transcript)
			}

		case realtime.EventInputTranscriptDone:
			if ev.Transcript != "" {
				r.recordTurn("user", ev.Transcript)
				r.call.Observe(ev.Transcript)
				r.enqueuePersist(persistOp{entities: true})
			}

		case realtime.EventSpeechStarted:
			r.handleBargeIn()

		case realtime.EventFunctionCallDone:
			go r.dispatchTool(ctx, ev)

		case realtime.EventError:
			if ev.Error == nil {
				continue
			}
			r.log.Warn("backend error event", "code", ev.Error.Code, "message", ev.Error.Message)
			switch ev.Error.Code {
			case realtime.ErrCodeRateLimited:
				time.Sleep(2 * time.Second)
			case realtime.ErrCodeSessionExpired:
				r.log.Error("backend session expired, ending call")
				r.call.MarkFailed("backend session expired")
				r.cancel()
				r.twilio.Close()
				return
			}
		}
	}
}

// handleBargeIn truncates the in-flight answer at the playback position
// the caller heard, then flushes Twilio's buffer before any more frames
// go out.
func (r *relay) handleBargeIn() {
	in, ok := r.tc.speechStarted(r.handler.now())
	if !ok {
		return
	}
	if in.Truncate {
		if err := r.ai.TruncateAssistantItem(in.ItemID, in.AudioEndMs); err != nil {
			r.log.Warn("truncate failed", "err", err)
		}
	}
	if err := r.sendTwilioJSON(telephony.NewClearFrame(r.streamSid)); err != nil {
		r.log.Warn("clear failed", "err", err)
	}
	r.log.Info("barge-in handled", "truncated", in.Truncate, "audio_end_ms", in.AudioEndMs)
}

// dispatchTool runs one function call off the audio path. toolMu keeps
// dispatch serialized so tool effects observe each other in order.
func (r *relay) dispatchTool(ctx context.Context, ev realtime.Event) {
	r.toolMu.Lock()
	defer r.toolMu.Unlock()

	d := &toolDispatcher{
		call:      r.call,
		calendar:  r.handler.Calendar,
		finder:    r.handler.Finder,
		sms:       r.handler.SMS,
		store:     r.handler.Store,
		log:       r.log,
		now:       r.handler.now,
		daysAhead: r.handler.DaysAhead,
	}
	output := d.Dispatch(ctx, ev.Name, ev.Arguments)

	if err := r.ai.SubmitToolOutput(ev.CallID, output); err != nil {
		r.log.Error("tool output submit failed", "tool", ev.Name, "err", err)
		return
	}
	// Resume generation explicitly; the model waits for it.
	if err := r.ai.CreateResponse(); err != nil {
		r.log.Error("post-tool response trigger failed", "err", err)
	}
}

func (r *relay) recordTurn(role, text string) {
	r.call.AppendTurn(role, text, r.handler.now())
	r.enqueuePersist(persistOp{role: role, text: text})
}

// enqueuePersist hands a write to the persist goroutine without blocking.
// The session keeps its own copy of every turn, so a dropped write only
// thins the durable transcript.
func (r *relay) enqueuePersist(op persistOp) {
	if r.persist == nil {
		return
	}
	select {
	case r.persist <- op:
	default:
		r.log.Warn("persist queue full, dropping write", "role", op.role)
	}
}

// persistLoop is the only goroutine that touches the store mid-call, so
// transcript turns land in the order they were spoken.
func (r *relay) persistLoop() {
	for op := range r.persist {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if op.entities {
			e := r.call.Entities()
			if err := r.handler.Store.UpdateCallEntities(ctx, r.call.CallSid, e.Name, e.Email, e.BusinessType, e.CompanyName); err != nil {
				r.log.Warn("entity persist failed", "err", err)
			}
		} else {
			if err := r.handler.Store.AppendTranscript(ctx, r.call.CallSid, op.role, op.text); err != nil {
				r.log.Warn("transcript persist failed", "role", op.role, "err", err)
			}
		}
		cancel()
	}
}

func (r *relay) sendTwilioJSON(v any) error {
	r.twilioWriteMu.Lock()
	defer r.twilioWriteMu.Unlock()
	_ = r.twilio.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return r.twilio.WriteJSON(v)
}
