package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"cinevox/client/internal/speech"
)

type Config struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
}

// ElevenLabs synthesizes speech over the ElevenLabs REST API and plays the
// decoded PCM into Sink in real-time paced 20ms frames.
type ElevenLabs struct {
	cfg    Config
	client *http.Client

	mu   sync.Mutex
	sink io.Writer
}

func NewElevenLabs(cfg Config, sink io.Writer) *ElevenLabs {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io/v1"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}
	return &ElevenLabs{cfg: cfg, client: &http.Client{Timeout: 60 * time.Second}, sink: sink}
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

type synthRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	LanguageCode  string        `json:"language_code,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// languageCode maps a BCP 47 locale like hi-IN to the ISO 639-1 code.
func languageCode(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(lang)
}

// speed clamps the speaking rate to the range ElevenLabs accepts.
func speed(rate float64) float64 {
	switch {
	case rate <= 0:
		return 1
	case rate < 0.7:
		return 0.7
	case rate > 1.2:
		return 1.2
	}
	return rate
}

func (e *ElevenLabs) Speak(ctx context.Context, s speech.Speech) error {
	if e.cfg.APIKey == "" || e.cfg.VoiceID == "" {
		ttsSynthesisTotal.WithLabelValues("config").Inc()
		return errors.New("elevenlabs: api key and voice id required")
	}
	start := time.Now()
	body, _ := json.Marshal(synthRequest{
		Text:          s.Text,
		ModelID:       e.cfg.ModelID,
		LanguageCode:  languageCode(s.Lang),
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.75, Speed: speed(s.Rate)},
	})
	url := fmt.Sprintf("%s/text-to-speech/%s", strings.TrimRight(e.cfg.BaseURL, "/"), e.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", e.cfg.APIKey)
	req.Header.Set("accept", "audio/wav")
	req.Header.Set("content-type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			ttsSynthesisTotal.WithLabelValues("cancelled").Inc()
			return ctx.Err()
		}
		ttsSynthesisTotal.WithLabelValues("network").Inc()
		return fmt.Errorf("elevenlabs: %w", err)
	}
	defer resp.Body.Close()
	ttsElevenLabsLatencyMS.Observe(float64(time.Since(start).Milliseconds()))
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		ttsSynthesisTotal.WithLabelValues("http").Inc()
		return fmt.Errorf("elevenlabs: status=%d body=%s", resp.StatusCode, string(b))
	}

	audio, err := readWAVPCM16(resp.Body)
	if err != nil {
		ttsSynthesisTotal.WithLabelValues("decode").Inc()
		return fmt.Errorf("elevenlabs: decode: %w", err)
	}
	scaleVolume(audio.data, s.Volume)
	if err := e.play(ctx, audio, start); err != nil {
		ttsSynthesisTotal.WithLabelValues("cancelled").Inc()
		return err
	}
	ttsSynthesisTotal.WithLabelValues("ok").Inc()
	ttsTotalDurationMS.Observe(float64(time.Since(start).Milliseconds()))
	log.Printf("[tts] spoke id=%s chars=%d bytes=%d in %dms", s.ID, len(s.Text), len(audio.data), time.Since(start).Milliseconds())
	return nil
}

// play writes 20ms frames paced in real time, checking ctx between frames.
func (e *ElevenLabs) play(ctx context.Context, audio pcmAudio, start time.Time) error {
	rate := audio.sampleRate
	if rate <= 0 {
		rate = 16000
	}
	frame := rate / 50 * 2
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	for pos := 0; pos < len(audio.data); pos += frame {
		end := pos + frame
		if end > len(audio.data) {
			end = len(audio.data)
		}
		if e.sink != nil {
			if _, err := e.sink.Write(audio.data[pos:end]); err != nil {
				return fmt.Errorf("speaker: %w", err)
			}
		}
		if pos == 0 {
			ttsFirstFrameMS.Observe(float64(time.Since(start).Milliseconds()))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}
