package stt

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"cinevox/client/internal/speech"
)

type bytesMic struct{ data []byte }

func (m bytesMic) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func fakeDeepgram(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token k" {
			t.Errorf("authorization = %q", got)
		}
		if r.URL.Query().Get("language") != "hi-IN" {
			t.Errorf("language = %q", r.URL.Query().Get("language"))
		}
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()
		if typ, _, err := c.Read(ctx); err != nil || typ != websocket.MessageBinary {
			return
		}
		for _, f := range frames {
			if err := c.Write(ctx, websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		for {
			if _, _, err := c.Read(ctx); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func collect(t *testing.T, ch <-chan speech.CaptureEvent) []speech.CaptureEvent {
	t.Helper()
	var out []speech.CaptureEvent
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("capture did not end, got %+v", out)
		}
	}
}

func result(text string, final, speechFinal bool) string {
	fin := "false"
	if final {
		fin = "true"
	}
	sf := "false"
	if speechFinal {
		sf = "true"
	}
	return `{"type":"Results","channel":{"alternatives":[{"transcript":"` + text + `"}]},"is_final":` + fin + `,"speech_final":` + sf + `}`
}

func TestDeepgramOneShotCapture(t *testing.T) {
	srv := fakeDeepgram(t, []string{
		`{"type":"Metadata"}`,
		result("book", false, false),
		result("book two", true, false),
		result("tickets", true, true),
	})
	d := NewDeepgram(DGConfig{APIKey: "k", BaseURL: "ws" + strings.TrimPrefix(srv.URL, "http")}, bytesMic{data: make([]byte, 2*frameBytes)})
	ch, err := d.Listen(context.Background(), "hi-IN")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	evs := collect(t, ch)
	want := []speech.CaptureEvent{
		{Kind: speech.Started},
		{Kind: speech.Partial, Interim: "book"},
		{Kind: speech.Partial, Final: "book two"},
		{Kind: speech.Partial, Final: "book two tickets", Complete: true},
		{Kind: speech.Ended},
	}
	if len(evs) != len(want) {
		t.Fatalf("events = %+v", evs)
	}
	for i := range want {
		if evs[i].Kind != want[i].Kind || evs[i].Final != want[i].Final || evs[i].Interim != want[i].Interim || evs[i].Complete != want[i].Complete {
			t.Fatalf("event %d = %+v, want %+v", i, evs[i], want[i])
		}
	}
}

func TestDeepgramProviderError(t *testing.T) {
	srv := fakeDeepgram(t, []string{`{"type":"Error","description":"bad auth"}`})
	d := NewDeepgram(DGConfig{APIKey: "k", BaseURL: "ws" + strings.TrimPrefix(srv.URL, "http")}, bytesMic{data: make([]byte, frameBytes)})
	ch, err := d.Listen(context.Background(), "hi-IN")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	evs := collect(t, ch)
	last := evs[len(evs)-1]
	if last.Kind != speech.Error || last.Err == nil || last.Err.Error() != "bad auth" {
		t.Fatalf("expected provider error, got %+v", evs)
	}
}

func TestDeepgramDialFailure(t *testing.T) {
	d := NewDeepgram(DGConfig{BaseURL: "ws://127.0.0.1:1/listen"}, bytesMic{})
	if _, err := d.Listen(context.Background(), "hi-IN"); err == nil {
		t.Fatalf("expected dial error")
	}
}

func TestParseFrameUtteranceEnd(t *testing.T) {
	if f := parseFrame([]byte(`{"type":"UtteranceEnd","last_word_end":2.1}`)); f.kind != frameUtteranceEnd {
		t.Fatalf("kind = %v", f.kind)
	}
	if f := parseFrame([]byte(`not json`)); f.kind != frameIgnored {
		t.Fatalf("garbage should be ignored")
	}
	f := parseFrame([]byte(`{"channel":{"alternatives":[{"transcript":"  namaste "}]},"is_final":"true"}`))
	if f.kind != frameResult || f.text != "namaste" || !f.isFinal {
		t.Fatalf("lenient result parse = %+v", f)
	}
}

func TestDeepgramInterimOnlyCaptureHasNoFinal(t *testing.T) {
	srv := fakeDeepgram(t, []string{
		result("avatar ki do", false, false),
		`{"type":"UtteranceEnd","last_word_end":1.4}`,
	})
	d := NewDeepgram(DGConfig{APIKey: "k", BaseURL: "ws" + strings.TrimPrefix(srv.URL, "http")}, bytesMic{data: make([]byte, frameBytes)})
	ch, err := d.Listen(context.Background(), "hi-IN")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	evs := collect(t, ch)
	for _, ev := range evs {
		if ev.Final != "" || ev.Complete {
			t.Fatalf("interim-only capture produced a final: %+v", evs)
		}
	}
	if last := evs[len(evs)-1]; last.Kind != speech.Ended {
		t.Fatalf("expected ended, got %+v", evs)
	}
}

func TestCaptureFinishDropsInterim(t *testing.T) {
	out := make(chan speech.CaptureEvent, 4)
	c := &capture{out: out, interim: "do ticket"}
	c.finish(context.Background(), "utterance_end")
	if ev := <-out; ev.Kind != speech.Ended {
		t.Fatalf("expected only ended, got %+v", ev)
	}

	c = &capture{out: out, finals: []string{"do", "ticket"}, interim: "kal"}
	c.finish(context.Background(), "stream_closed")
	if ev := <-out; ev.Kind != speech.Partial || ev.Final != "do ticket" || !ev.Complete {
		t.Fatalf("final = %+v", ev)
	}
	if ev := <-out; ev.Kind != speech.Ended {
		t.Fatalf("expected ended, got %+v", ev)
	}
}

func TestTypedDeliversOneLinePerSession(t *testing.T) {
	typed := NewTyped()
	if err := typed.Push("  Avatar ki do ticket  "); err != nil {
		t.Fatalf("push: %v", err)
	}
	_ = typed.Push("   ")
	if typed.Pending() != 1 {
		t.Fatalf("blank lines should not queue")
	}
	ch, _ := typed.Listen(context.Background(), "hi-IN")
	evs := collect(t, ch)
	if len(evs) != 3 || evs[1].Final != "Avatar ki do ticket" || !evs[1].Complete || evs[2].Kind != speech.Ended {
		t.Fatalf("events = %+v", evs)
	}
}

func TestTypedCancelWithoutInput(t *testing.T) {
	typed := NewTyped()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := typed.Listen(ctx, "hi-IN")
	if ev := <-ch; ev.Kind != speech.Started {
		t.Fatalf("expected started, got %+v", ev)
	}
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("stream should close on cancel")
	}
}
