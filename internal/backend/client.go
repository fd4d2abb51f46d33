// Package backend is the REST client for the booking backend: NLU parsing,
// catalog, bookings, mock payments and auth.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinevox/client/internal/types"
)

// TokenSource yields the bearer token of the current session, or "".
type TokenSource interface {
	Token() string
}

type Client interface {
	Parse(ctx context.Context, text string) (types.TurnResult, error)
	Movies(ctx context.Context) ([]types.Movie, error)
	Movie(ctx context.Context, id int64) (types.Movie, error)
	SearchMovies(ctx context.Context, title string) ([]types.Movie, error)
	CreateBooking(ctx context.Context, req types.BookingRequest) (types.Booking, error)
	Booking(ctx context.Context, id int64) (types.Booking, error)
	MyBookings(ctx context.Context) ([]types.Booking, error)
	GuestBookings(ctx context.Context, email string) ([]types.Booking, error)
	InitiateMockPayment(ctx context.Context, req types.PaymentRequest) (types.PaymentResponse, error)
	ConfirmOTP(ctx context.Context, req types.OTPConfirmRequest) (types.PaymentResponse, error)
	Login(ctx context.Context, creds types.Credentials) (types.AuthResponse, error)
	Signup(ctx context.Context, creds types.Credentials) (types.AuthResponse, error)
}

type HTTPClient struct {
	http    *http.Client
	base    string
	tokens  TokenSource
	timeout time.Duration
}

// NewClient builds a client for base, e.g. http://localhost:8080/api.
// timeout bounds every call except Parse; zero disables it.
func NewClient(base string, tokens TokenSource, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		http:    &http.Client{},
		base:    strings.TrimRight(base, "/"),
		tokens:  tokens,
		timeout: timeout,
	}
}

func (c *HTTPClient) Base() string { return c.base }

// Parse is never timed out here; a hung NLU call is bounded only by ctx.
func (c *HTTPClient) Parse(ctx context.Context, text string) (types.TurnResult, error) {
	var out types.TurnResult
	err := c.do(ctx, "nlp.parse", http.MethodPost, "/nlp/parse", map[string]string{"text": text}, &out, false)
	if out.Slots == nil {
		out.Slots = types.SlotSet{}
	}
	return out, err
}

func (c *HTTPClient) Movies(ctx context.Context) ([]types.Movie, error) {
	var out []types.Movie
	err := c.do(ctx, "movies.list", http.MethodGet, "/movies", nil, &out, true)
	return out, err
}

func (c *HTTPClient) Movie(ctx context.Context, id int64) (types.Movie, error) {
	var out types.Movie
	err := c.do(ctx, "movies.get", http.MethodGet, "/movies/"+strconv.FormatInt(id, 10), nil, &out, true)
	return out, err
}

func (c *HTTPClient) SearchMovies(ctx context.Context, title string) ([]types.Movie, error) {
	var out []types.Movie
	err := c.do(ctx, "movies.search", http.MethodGet, "/movies/search?title="+url.QueryEscape(title), nil, &out, true)
	return out, err
}

func (c *HTTPClient) CreateBooking(ctx context.Context, req types.BookingRequest) (types.Booking, error) {
	var out types.Booking
	err := c.do(ctx, "bookings.create", http.MethodPost, "/bookings", req, &out, true)
	return out, err
}

func (c *HTTPClient) Booking(ctx context.Context, id int64) (types.Booking, error) {
	var out types.Booking
	err := c.do(ctx, "bookings.get", http.MethodGet, "/bookings/"+strconv.FormatInt(id, 10), nil, &out, true)
	return out, err
}

func (c *HTTPClient) MyBookings(ctx context.Context) ([]types.Booking, error) {
	var out []types.Booking
	err := c.do(ctx, "bookings.mine", http.MethodGet, "/bookings/my-bookings", nil, &out, true)
	return out, err
}

func (c *HTTPClient) GuestBookings(ctx context.Context, email string) ([]types.Booking, error) {
	var out []types.Booking
	err := c.do(ctx, "bookings.guest", http.MethodGet, "/bookings/guest/"+url.PathEscape(email), nil, &out, true)
	return out, err
}

func (c *HTTPClient) InitiateMockPayment(ctx context.Context, req types.PaymentRequest) (types.PaymentResponse, error) {
	var out types.PaymentResponse
	err := c.do(ctx, "payments.mock", http.MethodPost, "/payments/mock", req, &out, true)
	return out, err
}

func (c *HTTPClient) ConfirmOTP(ctx context.Context, req types.OTPConfirmRequest) (types.PaymentResponse, error) {
	var out types.PaymentResponse
	err := c.do(ctx, "payments.confirm", http.MethodPost, "/payments/mock/confirm", req, &out, true)
	return out, err
}

func (c *HTTPClient) Login(ctx context.Context, creds types.Credentials) (types.AuthResponse, error) {
	var out types.AuthResponse
	err := c.do(ctx, "auth.login", http.MethodPost, "/auth/login", creds, &out, true)
	return out, err
}

func (c *HTTPClient) Signup(ctx context.Context, creds types.Credentials) (types.AuthResponse, error) {
	var out types.AuthResponse
	err := c.do(ctx, "auth.signup", http.MethodPost, "/auth/signup", creds, &out, true)
	return out, err
}

// PosterURL resolves a poster path against the server root (base without /api).
func (c *HTTPClient) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") {
		return path
	}
	root := strings.Replace(c.base, "/api", "", 1)
	if strings.HasPrefix(path, "/posters/") {
		return root + path
	}
	return root + "/posters/" + strings.TrimLeft(path, "/")
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out any, bounded bool) error {
	if bounded && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	var rdr io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		rdr = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metricRequestMS.WithLabelValues(op, "error").Observe(float64(time.Since(start).Milliseconds()))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	metricRequestMS.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(float64(time.Since(start).Milliseconds()))

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := decodeAPIError(op, resp.StatusCode, b)
		log.Printf("[backend] %s %s -> %d %s", method, path, resp.StatusCode, apiErr.Message)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}
