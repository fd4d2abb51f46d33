package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cinevox/client/internal/assistant"
	"cinevox/client/internal/backend"
	"cinevox/client/internal/checkout"
	"cinevox/client/internal/config"
	"cinevox/client/internal/sessions"
	"cinevox/client/internal/speech"
	"cinevox/client/internal/stt"
	"cinevox/client/internal/tts"
)

type app struct {
	cfg   config.Config
	store *sessions.FileStore
	sess  *sessions.Context
	api   *backend.HTTPClient
	flow  *checkout.Flow
}

func wireApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	store := sessions.NewFileStore(cfg.Client.StatePath)
	sess := sessions.NewContext(store)
	if err := sess.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("wire session: %w", err)
	}
	api := backend.NewClient(cfg.Backend.BaseURL, sess, cfg.Backend.Timeout)

	return &app{
		cfg:   cfg,
		store: store,
		sess:  sess,
		api:   api,
		flow:  checkout.NewFlow(api, sess),
	}, nil
}

func (a *app) assistantOptions() assistant.Options {
	c := a.cfg.Assistant
	return assistant.Options{
		Locale:                  c.Locale,
		VoiceEnabled:            c.VoiceEnabled,
		BookingIntent:           c.BookingIntent,
		PaymentIntent:           c.PaymentIntent,
		InvalidateOnTopicChange: c.InvalidateOnTopicChange,
		SpeechRate:              c.SpeechRate,
		SpeechPitch:             c.SpeechPitch,
		SpeechVolume:            c.SpeechVolume,
	}
}

// recognizer picks the capture backend. Audio mode without a Deepgram key
// or an audio source reports recognition as unavailable.
func (a *app) recognizer(mode, audioPath string, typed *stt.Typed) (speech.Capability[speech.Recognizer], error) {
	switch mode {
	case "text":
		return speech.Available[speech.Recognizer](typed), nil
	case "audio":
		if a.cfg.Deepgram.APIKey == "" || audioPath == "" {
			return speech.Unavailable[speech.Recognizer](), nil
		}
		dg := stt.NewDeepgram(stt.DGConfig{
			APIKey:        a.cfg.Deepgram.APIKey,
			Model:         a.cfg.Deepgram.Model,
			BaseURL:       a.cfg.Deepgram.WSURL,
			EndpointingMs: a.cfg.Deepgram.EndpointingMs,
			UtterEndMs:    a.cfg.Deepgram.UtterEndMs,
			Pace:          audioPath != "-",
		}, stt.FileMicrophone{Path: audioPath})
		return speech.Available[speech.Recognizer](dg), nil
	}
	return speech.Unavailable[speech.Recognizer](), fmt.Errorf("unknown mode %q (want text or audio)", mode)
}

// synthesizer writes ElevenLabs audio to speakerPath. Without a path or
// credentials responses stay text only.
func (a *app) synthesizer(speakerPath string) (speech.Capability[speech.Synthesizer], io.Closer, error) {
	if speakerPath == "" || a.cfg.Eleven.APIKey == "" || a.cfg.Eleven.VoiceID == "" {
		return speech.Unavailable[speech.Synthesizer](), nil, nil
	}
	if dir := filepath.Dir(speakerPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return speech.Unavailable[speech.Synthesizer](), nil, fmt.Errorf("speaker output: %w", err)
		}
	}
	f, err := os.Create(speakerPath)
	if err != nil {
		return speech.Unavailable[speech.Synthesizer](), nil, fmt.Errorf("speaker output: %w", err)
	}
	el := tts.NewElevenLabs(tts.Config{
		APIKey:  a.cfg.Eleven.APIKey,
		VoiceID: a.cfg.Eleven.VoiceID,
		ModelID: a.cfg.Eleven.ModelID,
		BaseURL: a.cfg.Eleven.BaseURL,
	}, f)
	return speech.Available[speech.Synthesizer](el), f, nil
}

// prompt reads one trimmed line from in after printing label.
func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	_, _ = fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}
