package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cinevox/client/internal/config"
)

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

type HealthStatus struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (h HealthStatus) String() string {
	status := "OK"
	if !h.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("Health: %s\n", status)
	for _, c := range h.Checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		s += fmt.Sprintf("  %s %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
		if c.Error != "" {
			s += fmt.Sprintf(" - %s", c.Error)
		}
		s += "\n"
	}
	return s
}

// CheckAll probes the booking backend and both speech providers.
func CheckAll(ctx context.Context, cfg config.Config) HealthStatus {
	checks := []CheckResult{
		checkBackend(ctx, cfg),
		checkDeepgram(ctx, cfg),
		checkElevenLabs(ctx, cfg),
	}

	allOK := true
	for _, c := range checks {
		if !c.OK {
			allOK = false
		}
	}

	return HealthStatus{
		OK:        allOK,
		Checks:    checks,
		CheckedAt: time.Now().UTC(),
	}
}

func checkBackend(ctx context.Context, cfg config.Config) CheckResult {
	if cfg.Backend.BaseURL == "" {
		return CheckResult{Name: "backend", Error: "CINEVOX_API_URL not set"}
	}
	url := strings.TrimRight(cfg.Backend.BaseURL, "/") + "/movies"
	return probe(ctx, "backend", url, nil, func(code int) string {
		if code != http.StatusOK {
			return fmt.Sprintf("unexpected status %d", code)
		}
		return ""
	})
}

func checkDeepgram(ctx context.Context, cfg config.Config) CheckResult {
	if cfg.Deepgram.APIKey == "" {
		return CheckResult{Name: "deepgram", Error: "DEEPGRAM_API_KEY not set"}
	}
	hdr := http.Header{"Authorization": []string{"Token " + cfg.Deepgram.APIKey}}
	return probe(ctx, "deepgram", deepgramProjectsURL(cfg.Deepgram.WSURL), hdr, func(code int) string {
		switch code {
		case http.StatusOK:
			return ""
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Sprintf("invalid API key (%d)", code)
		}
		return fmt.Sprintf("unexpected status %d", code)
	})
}

// checkElevenLabs looks up the configured voice, which also validates the key.
func checkElevenLabs(ctx context.Context, cfg config.Config) CheckResult {
	if cfg.Eleven.APIKey == "" || cfg.Eleven.VoiceID == "" {
		return CheckResult{Name: "elevenlabs", Error: "ELEVENLABS_API_KEY or ELEVENLABS_VOICE_ID not set"}
	}
	url := strings.TrimRight(cfg.Eleven.BaseURL, "/") + "/voices/" + cfg.Eleven.VoiceID
	hdr := http.Header{"xi-api-key": []string{cfg.Eleven.APIKey}}
	return probe(ctx, "elevenlabs", url, hdr, func(code int) string {
		switch code {
		case http.StatusOK:
			return ""
		case http.StatusUnauthorized:
			return "invalid API key (401)"
		case http.StatusNotFound:
			return fmt.Sprintf("voice ID %q not found", cfg.Eleven.VoiceID)
		}
		return fmt.Sprintf("unexpected status %d", code)
	})
}

func probe(ctx context.Context, name, url string, hdr http.Header, judge func(code int) string) CheckResult {
	start := time.Now()
	result := CheckResult{Name: name}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("request build failed: %v", err)
		result.Latency = time.Since(start)
		return result
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Latency = time.Since(start)
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	result.Latency = time.Since(start)
	if msg := judge(resp.StatusCode); msg != "" {
		result.Error = msg
		return result
	}
	result.OK = true
	return result
}

// deepgramProjectsURL maps the streaming endpoint to the REST projects listing,
// e.g. wss://api.deepgram.com/v1/listen -> https://api.deepgram.com/v1/projects.
func deepgramProjectsURL(wsURL string) string {
	u := wsURL
	if u == "" {
		u = "wss://api.deepgram.com/v1/listen"
	}
	switch {
	case strings.HasPrefix(u, "wss://"):
		u = "https://" + strings.TrimPrefix(u, "wss://")
	case strings.HasPrefix(u, "ws://"):
		u = "http://" + strings.TrimPrefix(u, "ws://")
	}
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimSuffix(strings.TrimRight(u, "/"), "/listen")
	return u + "/projects"
}
