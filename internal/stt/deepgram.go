package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"cinevox/client/internal/speech"
)

const (
	sampleRate = 16000
	// 20ms of PCM16 mono at 16kHz
	frameBytes = sampleRate / 50 * 2
)

// Microphone opens a PCM16 16kHz mono audio stream for one capture.
type Microphone interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

type DGConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	EndpointingMs int
	UtterEndMs    int
	// Pace sends real time; off for sources that already block per frame.
	Pace bool
}

// Deepgram is a one-shot streaming recognizer. Every Listen dials a new
// socket that is closed when the utterance ends. There is no reconnect.
type Deepgram struct {
	cfg DGConfig
	mic Microphone
}

func NewDeepgram(cfg DGConfig, mic Microphone) *Deepgram {
	return &Deepgram{cfg: cfg, mic: mic}
}

func (d *Deepgram) listenURL(locale string) string {
	q := url.Values{}
	q.Set("model", orDefault(d.cfg.Model, "nova-2"))
	q.Set("language", orDefault(locale, "hi-IN"))
	q.Set("smart_format", "true")
	q.Set("endpointing", fmt.Sprintf("%d", nzd(d.cfg.EndpointingMs, 1000)))
	q.Set("interim_results", "true")
	q.Set("utterance_end_ms", fmt.Sprintf("%d", nzd(d.cfg.UtterEndMs, 1500)))
	q.Set("vad_events", "true")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	q.Set("channels", "1")
	return orDefault(d.cfg.BaseURL, "wss://api.deepgram.com/v1/listen") + "?" + q.Encode()
}

func (d *Deepgram) Listen(ctx context.Context, locale string) (<-chan speech.CaptureEvent, error) {
	if d.mic == nil {
		return nil, errors.New("audio-capture: no microphone configured")
	}
	audio, err := d.mic.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("audio-capture: %w", err)
	}

	hdr := make(http.Header)
	if d.cfg.APIKey != "" {
		hdr.Set("Authorization", "Token "+d.cfg.APIKey)
	}
	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	start := time.Now()
	ws, _, err := websocket.Dial(dctx, d.listenURL(locale), &websocket.DialOptions{HTTPHeader: hdr})
	if err != nil {
		_ = audio.Close()
		metricErrors.WithLabelValues("connect").Inc()
		log.Printf("[stt] connect error: %v", err)
		return nil, fmt.Errorf("network: %w", err)
	}
	metricConnectMS.Observe(float64(time.Since(start).Milliseconds()))
	log.Printf("[stt] connected in %dms locale=%s", time.Since(start).Milliseconds(), locale)

	out := make(chan speech.CaptureEvent, 32)
	c := &capture{ws: ws, audio: audio, out: out, pace: d.cfg.Pace, started: start}
	go c.run(ctx)
	return out, nil
}

// capture is one live recognition socket.
type capture struct {
	ws      *websocket.Conn
	audio   io.ReadCloser
	out     chan speech.CaptureEvent
	pace    bool
	started time.Time

	finals      []string
	interim     string
	seenInterim bool
}

func (c *capture) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	gaugeSessions.Inc()
	defer func() {
		cancel()
		_ = c.audio.Close()
		_ = c.ws.Close(websocket.StatusNormalClosure, "bye")
		gaugeSessions.Dec()
		close(c.out)
	}()

	if !c.emit(ctx, speech.CaptureEvent{Kind: speech.Started}) {
		return
	}
	drained := make(chan struct{})
	go c.pumpAudio(ctx, drained)

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-drained:
				// provider closed after the audio ran out
				c.finish(ctx, "stream_closed")
			default:
				metricErrors.WithLabelValues("socket").Inc()
				log.Printf("[stt] read error: %v", err)
				c.emit(ctx, speech.CaptureEvent{Kind: speech.Error, Err: fmt.Errorf("network: %w", err)})
			}
			return
		}
		f := parseFrame(data)
		switch f.kind {
		case frameError:
			metricErrors.WithLabelValues("provider").Inc()
			log.Printf("[stt] provider error: %s", f.text)
			c.emit(ctx, speech.CaptureEvent{Kind: speech.Error, Err: errors.New(f.text)})
			return
		case frameResult:
			if f.text == "" {
				if f.speechFinal && len(c.finals) > 0 {
					c.finish(ctx, "provider")
					return
				}
				if f.isFinal {
					metricEmptyFinalSkipped.Inc()
				}
				continue
			}
			if !c.seenInterim {
				c.seenInterim = true
				metricTTFTMS.Observe(float64(time.Since(c.started).Milliseconds()))
			}
			if f.isFinal {
				c.finals = append(c.finals, f.text)
				c.interim = ""
			} else {
				metricInterims.Inc()
				c.interim = f.text
			}
			if f.speechFinal {
				c.finish(ctx, "provider")
				return
			}
			if !c.emit(ctx, speech.CaptureEvent{Kind: speech.Partial, Final: strings.Join(c.finals, " "), Interim: c.interim}) {
				return
			}
		case frameUtteranceEnd:
			metricUtteranceEvents.WithLabelValues("utterance_end").Inc()
			c.finish(ctx, "utterance_end")
			return
		case frameSpeechStarted:
			metricUtteranceEvents.WithLabelValues("speech_started").Inc()
		}
	}
}

// finish emits the cumulative final and ends the capture. A trailing interim
// that never settled is dropped.
func (c *capture) finish(ctx context.Context, source string) {
	text := strings.Join(c.finals, " ")
	if text != "" {
		metricFinalEmitted.WithLabelValues(source).Inc()
		if !c.emit(ctx, speech.CaptureEvent{Kind: speech.Partial, Final: text, Complete: true}) {
			return
		}
	} else if c.interim != "" {
		metricInterimDropped.Inc()
		log.Printf("[stt] capture ended (%s) without a final segment, interim dropped", source)
	}
	c.emit(ctx, speech.CaptureEvent{Kind: speech.Ended})
}

func (c *capture) emit(ctx context.Context, ev speech.CaptureEvent) bool {
	select {
	case c.out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// pumpAudio streams 20ms frames until the source runs dry, then asks the
// provider to flush with CloseStream.
func (c *capture) pumpAudio(ctx context.Context, drained chan<- struct{}) {
	defer close(drained)
	var tick *time.Ticker
	if c.pace {
		tick = time.NewTicker(20 * time.Millisecond)
		defer tick.Stop()
	}
	buf := make([]byte, frameBytes)
	for {
		n, err := io.ReadFull(c.audio, buf)
		if n > 0 {
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick.C:
				}
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			werr := c.ws.Write(wctx, websocket.MessageBinary, buf[:n])
			cancel()
			if werr != nil {
				if ctx.Err() == nil {
					log.Printf("[stt] write error: %v", werr)
				}
				return
			}
			metricAudioBytes.Add(float64(n))
			metricFrames.Inc()
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				log.Printf("[stt] audio read error: %v", err)
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_ = c.ws.Write(wctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`))
			cancel()
			return
		}
	}
}

type frameKind int

const (
	frameIgnored frameKind = iota
	frameResult
	frameUtteranceEnd
	frameSpeechStarted
	frameError
)

type frame struct {
	kind        frameKind
	text        string
	isFinal     bool
	speechFinal bool
}

// parseFrame reads a Deepgram message leniently. Unknown shapes are ignored.
func parseFrame(data []byte) frame {
	var m map[string]any
	if len(data) == 0 || json.Unmarshal(data, &m) != nil {
		return frame{}
	}
	typ := toString(m["type"])
	switch {
	case strings.EqualFold(typ, "Error") || m["error"] != nil:
		msg := toString(m["error"])
		if msg == "" {
			msg = toString(m["message"])
		}
		if msg == "" {
			msg = toString(m["description"])
		}
		if msg == "" {
			msg = "provider_error"
		}
		return frame{kind: frameError, text: msg}
	case strings.EqualFold(typ, "UtteranceEnd"):
		return frame{kind: frameUtteranceEnd}
	case strings.EqualFold(typ, "SpeechStarted"):
		return frame{kind: frameSpeechStarted}
	case strings.EqualFold(typ, "Metadata"):
		return frame{}
	case strings.EqualFold(typ, "Results") || m["channel"] != nil:
		text := ""
		if ch, ok := m["channel"].(map[string]any); ok {
			if alts, ok := ch["alternatives"].([]any); ok && len(alts) > 0 {
				if a0, ok := alts[0].(map[string]any); ok {
					text = strings.TrimSpace(toString(a0["transcript"]))
				}
			}
		}
		return frame{
			kind:        frameResult,
			text:        text,
			isFinal:     toBool(m["is_final"]),
			speechFinal: toBool(m["speech_final"]),
		}
	}
	return frame{}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nzd(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}
