package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cinevox/client/internal/config"
)

func TestCheckAllAgainstFakes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/movies":
			_, _ = w.Write([]byte(`[]`))
		case r.URL.Path == "/v1/projects":
			if r.Header.Get("Authorization") != "Token dg" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"projects":[]}`))
		case strings.HasPrefix(r.URL.Path, "/el/voices/"):
			if r.Header.Get("xi-api-key") != "el" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if strings.HasSuffix(r.URL.Path, "/missing") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	var cfg config.Config
	cfg.Backend.BaseURL = srv.URL + "/api"
	cfg.Deepgram.APIKey = "dg"
	cfg.Deepgram.WSURL = "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/listen"
	cfg.Eleven.APIKey = "el"
	cfg.Eleven.VoiceID = "v1"
	cfg.Eleven.BaseURL = srv.URL + "/el"

	st := CheckAll(context.Background(), cfg)
	if !st.OK || len(st.Checks) != 3 {
		t.Fatalf("expected all ok, got %s", st)
	}

	cfg.Eleven.VoiceID = "missing"
	st = CheckAll(context.Background(), cfg)
	if st.OK || st.Checks[2].Error == "" {
		t.Fatalf("expected voice failure, got %s", st)
	}
}

func TestMissingKeys(t *testing.T) {
	var cfg config.Config
	st := CheckAll(context.Background(), cfg)
	if st.OK {
		t.Fatalf("expected failure without config")
	}
	for _, c := range st.Checks {
		if c.OK || c.Error == "" {
			t.Fatalf("check %s should report a missing setting", c.Name)
		}
	}
	if !strings.Contains(st.String(), "FAIL") {
		t.Fatalf("summary = %q", st.String())
	}
}

func TestDeepgramProjectsURL(t *testing.T) {
	cases := map[string]string{
		"":                                          "https://api.deepgram.com/v1/projects",
		"wss://api.deepgram.com/v1/listen":          "https://api.deepgram.com/v1/projects",
		"ws://localhost:9000/v1/listen?model=nova-2": "http://localhost:9000/v1/projects",
	}
	for in, want := range cases {
		if got := deepgramProjectsURL(in); got != want {
			t.Fatalf("%q -> %q, want %q", in, got, want)
		}
	}
}
