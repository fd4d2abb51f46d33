package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinevox/client/internal/backend"
	"cinevox/client/internal/sessions"
	"cinevox/client/internal/types"
)

const seatMapJSON = `[{"row":2,"seat":1,"available":true},{"row":1,"seat":2,"available":true},{"row":1,"seat":1,"available":false},{"row":1,"seat":3,"available":true}]`

type fakeBackend struct {
	movies      []types.Movie
	bookings    []types.BookingRequest
	payments    []types.PaymentRequest
	payResp     types.PaymentResponse
	payErr      error
	confirmResp types.PaymentResponse
	confirmErr  error
}

func (f *fakeBackend) Movies(context.Context) ([]types.Movie, error) { return f.movies, nil }

func (f *fakeBackend) CreateBooking(_ context.Context, req types.BookingRequest) (types.Booking, error) {
	f.bookings = append(f.bookings, req)
	return types.Booking{ID: 77, Status: "PENDING"}, nil
}

func (f *fakeBackend) InitiateMockPayment(_ context.Context, req types.PaymentRequest) (types.PaymentResponse, error) {
	f.payments = append(f.payments, req)
	return f.payResp, f.payErr
}

func (f *fakeBackend) ConfirmOTP(context.Context, types.OTPConfirmRequest) (types.PaymentResponse, error) {
	return f.confirmResp, f.confirmErr
}

func catalog() []types.Movie {
	return []types.Movie{{
		ID:    7,
		Title: "Avatar",
		Showtimes: []types.Showtime{
			{ID: 42, StartTime: "2025-01-01T19:00:00", Theater: "PVR", City: "Pune", SeatMap: seatMapJSON},
		},
	}}
}

func TestParseSeatMapSortsRowMajor(t *testing.T) {
	t.Parallel()

	seats, err := ParseSeatMap(seatMapJSON)
	require.NoError(t, err)
	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, SeatLabel(s))
	}
	assert.Equal(t, []string{"A1", "A2", "A3", "B1"}, labels)
	assert.Equal(t, "A xx[][]\nB []\n", SeatGrid(seats))

	empty, err := ParseSeatMap("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseSeatMap("{broken")
	assert.Error(t, err)
}

func TestSelectAndAutoSelect(t *testing.T) {
	t.Parallel()

	seats, err := ParseSeatMap(seatMapJSON)
	require.NoError(t, err)

	picked, err := Select(seats, []string{"a2", "B1", "A2"})
	require.NoError(t, err)
	assert.Len(t, picked, 2)

	_, err = Select(seats, []string{"A1"})
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	_, err = Select(seats, []string{"Z9"})
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	_, err = Select(seats, nil)
	assert.ErrorIs(t, err, ErrNoSeats)
	_, err = Select(seats, []string{"1A"})
	assert.Error(t, err)

	auto, err := AutoSelect(seats, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A3"}, []string{SeatLabel(auto[0]), SeatLabel(auto[1])})

	_, err = AutoSelect(seats, 4)
	assert.ErrorIs(t, err, ErrNotEnoughSeats)
	assert.Equal(t, 500.0, Price(2))
}

func TestGuestCheckoutWithOTP(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := &fakeBackend{
		movies:      catalog(),
		payResp:     types.PaymentResponse{Status: types.PaymentOTPRequired, OTPToken: "otp-1"},
		confirmResp: types.PaymentResponse{Status: types.PaymentSuccess, BookingID: 77, TransactionID: "txn-9"},
	}
	sess := sessions.NewContext(sessions.NewMemoryStore())
	flow := NewFlow(api, sess)

	plan, err := flow.Prepare(ctx, 42)
	require.NoError(t, err)
	seats, err := AutoSelect(plan.Seats, 2)
	require.NoError(t, err)
	sel, err := flow.Hold(ctx, plan, seats)
	require.NoError(t, err)
	assert.Equal(t, 500.0, sel.Amount)
	assert.Equal(t, "Avatar", sel.MovieTitle)

	_, err = flow.Pay(ctx, Card{Number: "4111"}, Guest{})
	assert.ErrorIs(t, err, ErrGuestDetailsRequired)
	assert.Empty(t, api.bookings)

	out, err := flow.Pay(ctx, Card{Number: "4111", Expiry: "12/30", CVV: "123", Holder: "Asha"}, Guest{Name: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentOTPRequired, out.Status)
	assert.Equal(t, "otp-1", out.OTPToken)

	require.Len(t, api.bookings, 1)
	assert.Equal(t, "asha@example.com", api.bookings[0].GuestEmail)
	var sent []types.Seat
	require.NoError(t, json.Unmarshal([]byte(api.bookings[0].Seats), &sent))
	assert.Len(t, sent, 2)
	require.Len(t, api.payments, 1)
	assert.True(t, api.payments[0].SimulateOTP)
	assert.Equal(t, int64(77), api.payments[0].BookingID)

	held, ok := sess.Selection()
	require.True(t, ok)
	assert.Equal(t, int64(77), held.BookingID)

	done, err := flow.ConfirmOTP(ctx, out.OTPToken, TestOTP)
	require.NoError(t, err)
	assert.Equal(t, "txn-9", done.TransactionID)
	_, ok = sess.Selection()
	assert.False(t, ok, "selection should be released after payment")
}

func TestSignedInUserSkipsGuestDetails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := &fakeBackend{movies: catalog(), payResp: types.PaymentResponse{Status: types.PaymentSuccess, BookingID: 77}}
	sess := sessions.NewContext(sessions.NewMemoryStore())
	require.NoError(t, sess.SignIn(ctx, types.AuthResponse{Token: "jwt", Email: "a@b.c", UserID: 1}))
	flow := NewFlow(api, sess)

	plan, err := flow.Prepare(ctx, 42)
	require.NoError(t, err)
	_, err = flow.Hold(ctx, plan, plan.Seats[1:2])
	require.NoError(t, err)

	out, err := flow.Pay(ctx, Card{Number: "4111"}, Guest{})
	require.NoError(t, err)
	assert.Equal(t, types.PaymentSuccess, out.Status)
	assert.Empty(t, api.bookings[0].GuestEmail)
	_, ok := sess.Selection()
	assert.False(t, ok)
}

func TestOTPFailureKeepsSelection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := &fakeBackend{
		movies:     catalog(),
		payResp:    types.PaymentResponse{Status: types.PaymentOTPRequired, OTPToken: "otp-1"},
		confirmErr: &backend.APIError{Op: "payments.confirm", Status: http.StatusBadRequest, Message: "Invalid OTP"},
	}
	sess := sessions.NewContext(sessions.NewMemoryStore())
	require.NoError(t, sess.SignIn(ctx, types.AuthResponse{Token: "jwt"}))
	flow := NewFlow(api, sess)
	plan, err := flow.Prepare(ctx, 42)
	require.NoError(t, err)
	_, err = flow.Hold(ctx, plan, plan.Seats[1:2])
	require.NoError(t, err)
	_, err = flow.Pay(ctx, Card{}, Guest{})
	require.NoError(t, err)

	_, err = flow.ConfirmOTP(ctx, "otp-1", "000000")
	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "Invalid OTP", failure.Message)
	_, ok := sess.Selection()
	assert.True(t, ok, "selection must survive a failed OTP")

	api.confirmErr = nil
	api.confirmResp = types.PaymentResponse{Status: types.PaymentFailed}
	_, err = flow.ConfirmOTP(ctx, "otp-1", "000000")
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "Payment failed", failure.Message)
}

func TestPaymentErrorUsesGenericMessage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := &fakeBackend{movies: catalog(), payErr: errors.New("connection reset")}
	sess := sessions.NewContext(sessions.NewMemoryStore())
	require.NoError(t, sess.SignIn(ctx, types.AuthResponse{Token: "jwt"}))
	flow := NewFlow(api, sess)
	plan, err := flow.Prepare(ctx, 42)
	require.NoError(t, err)
	_, err = flow.Hold(ctx, plan, plan.Seats[1:2])
	require.NoError(t, err)

	_, err = flow.Pay(ctx, Card{}, Guest{})
	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "Payment failed", failure.Message)
	_, ok := sess.Selection()
	assert.True(t, ok)
}

func TestPayWithoutSelection(t *testing.T) {
	t.Parallel()

	flow := NewFlow(&fakeBackend{}, sessions.NewContext(sessions.NewMemoryStore()))
	_, err := flow.Pay(context.Background(), Card{}, Guest{Name: "a", Email: "b"})
	assert.ErrorIs(t, err, sessions.ErrNoSelection)
}

func TestPrepareUnknownShowtime(t *testing.T) {
	t.Parallel()

	flow := NewFlow(&fakeBackend{movies: catalog()}, sessions.NewContext(sessions.NewMemoryStore()))
	_, err := flow.Prepare(context.Background(), 999)
	assert.ErrorIs(t, err, ErrShowtimeNotFound)
}
