package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinevox/client/internal/types"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestParseDecodesTurnAndDropsUnknownSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/nlp/parse", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "book 2 tickets for Avatar", body["text"])
		_, _ = w.Write([]byte(`{"intent":"book_ticket","slots":{"movie_name":"Avatar","showtime_id":42,"num_seats":2,"seat_class":"gold"},"response":"Theek hai","needsClarification":false}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api", nil, time.Second)
	res, err := c.Parse(context.Background(), "book 2 tickets for Avatar")
	require.NoError(t, err)
	assert.Equal(t, "book_ticket", res.Intent)
	assert.Equal(t, "Theek hai", res.ResponseText)
	assert.False(t, res.NeedsClarification)
	assert.Len(t, res.Slots, 3)
	id, ok := res.Slots.ID(types.SlotShowtimeID)
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, 2, res.Slots.IntOr(types.SlotNumSeats, 1))
}

func TestParseIgnoresClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(80 * time.Millisecond)
		_, _ = w.Write([]byte(`{"intent":"greeting","response":"Namaste"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, 20*time.Millisecond)
	res, err := c.Parse(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Namaste", res.ResponseText)
	assert.NotNil(t, res.Slots)

	_, err = c.Movies(context.Background())
	require.Error(t, err)
}

func TestBearerTokenAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "/bookings/my-bookings", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":5,"status":"PAID","seats":"[{\"row\":1,\"seat\":2,\"available\":true}]","amount":250}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok-1"), time.Second)
	got, err := c.MyBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].ID)
	assert.Equal(t, "PAID", got[0].Status)
}

func TestAPIErrorCarriesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid OTP"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, time.Second)
	_, err := c.ConfirmOTP(context.Background(), types.OTPConfirmRequest{OTPToken: "t", OTP: "000000"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid OTP", Message(err, "OTP verification failed"))
	assert.Equal(t, "fallback", Message(errors.New("boom"), "fallback"))
}

func TestUnauthorizedSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("stale"), time.Second)
	_, err := c.MyBookings(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPathsAndQueries(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.RequestURI())
		switch r.URL.Path {
		case "/movies/7":
			_, _ = w.Write([]byte(`{"id":7,"title":"Avatar","showtimes":[{"id":42,"startTime":"2025-01-01T19:00:00","seatsAvailable":10,"seatsTotal":10}]}`))
		case "/auth/login":
			_, _ = w.Write([]byte(`{"token":"jwt","email":"a@b.c","name":"A","userId":3}`))
		case "/payments/mock":
			_, _ = w.Write([]byte(`{"status":"OTP_REQUIRED","otp_token":"otp-1"}`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL, nil, time.Second)
	m, err := c.Movie(ctx, 7)
	require.NoError(t, err)
	require.Len(t, m.Showtimes, 1)
	assert.Equal(t, int64(42), m.Showtimes[0].ID)

	_, err = c.SearchMovies(ctx, "Avatar 2")
	require.NoError(t, err)
	_, err = c.GuestBookings(ctx, "guest@example.com")
	require.NoError(t, err)

	auth, err := c.Login(ctx, types.Credentials{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), auth.UserID)

	pay, err := c.InitiateMockPayment(ctx, types.PaymentRequest{BookingID: 1, SimulateOTP: true})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentOTPRequired, pay.Status)
	assert.Equal(t, "otp-1", pay.OTPToken)

	assert.Equal(t, []string{
		"GET /movies/7",
		"GET /movies/search?title=Avatar+2",
		"GET /bookings/guest/guest@example.com",
		"POST /auth/login",
		"POST /payments/mock",
	}, seen)
}

func TestPosterURL(t *testing.T) {
	c := NewClient("http://localhost:8080/api", nil, 0)
	assert.Equal(t, "", c.PosterURL(""))
	assert.Equal(t, "https://cdn/x.jpg", c.PosterURL("https://cdn/x.jpg"))
	assert.Equal(t, "http://localhost:8080/posters/a.jpg", c.PosterURL("/posters/a.jpg"))
	assert.Equal(t, "http://localhost:8080/posters/b.jpg", c.PosterURL("//b.jpg"))
}
