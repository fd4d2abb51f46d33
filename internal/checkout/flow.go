// Package checkout turns a seat-selection route into a paid booking: seat
// picking, the held selection, booking creation and the mock OTP payment.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"cinevox/client/internal/backend"
	"cinevox/client/internal/sessions"
	"cinevox/client/internal/types"
)

// TestOTP is the fixed code the mock payment backend accepts.
const TestOTP = "123456"

var ErrGuestDetailsRequired = errors.New("guest name and email required")

// Backend is the subset of the REST client checkout needs.
type Backend interface {
	Movies(ctx context.Context) ([]types.Movie, error)
	CreateBooking(ctx context.Context, req types.BookingRequest) (types.Booking, error)
	InitiateMockPayment(ctx context.Context, req types.PaymentRequest) (types.PaymentResponse, error)
	ConfirmOTP(ctx context.Context, req types.OTPConfirmRequest) (types.PaymentResponse, error)
}

// Failure is a payment or OTP failure with the message to show the user.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

type Card struct {
	Number string
	Expiry string
	CVV    string
	Holder string
}

type Guest struct {
	Name  string
	Email string
}

type Outcome struct {
	Status        string
	OTPToken      string
	BookingID     int64
	TransactionID string
	Message       string
}

// Plan is a showtime ready for seat picking.
type Plan struct {
	Movie    types.Movie
	Showtime types.Showtime
	Seats    []types.Seat
}

type Flow struct {
	api  Backend
	sess *sessions.Context
}

func NewFlow(api Backend, sess *sessions.Context) *Flow {
	return &Flow{api: api, sess: sess}
}

// Prepare loads the showtime from the catalog and parses its seat map.
func (f *Flow) Prepare(ctx context.Context, showtimeID int64) (Plan, error) {
	movies, err := f.api.Movies(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("load showtime: %w", err)
	}
	m, st, ok := FindShowtime(movies, showtimeID)
	if !ok {
		return Plan{}, fmt.Errorf("%w: %d", ErrShowtimeNotFound, showtimeID)
	}
	seats, err := ParseSeatMap(st.SeatMap)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Movie: m, Showtime: st, Seats: seats}, nil
}

// Hold persists the chosen seats as the in-progress booking.
func (f *Flow) Hold(ctx context.Context, plan Plan, seats []types.Seat) (types.BookingSelection, error) {
	if len(seats) == 0 {
		return types.BookingSelection{}, ErrNoSeats
	}
	sel := types.BookingSelection{
		ShowtimeID: plan.Showtime.ID,
		MovieID:    plan.Movie.ID,
		MovieTitle: plan.Movie.Title,
		Theater:    plan.Showtime.Theater,
		City:       plan.Showtime.City,
		StartTime:  plan.Showtime.StartTime,
		Seats:      seats,
		Amount:     Price(len(seats)),
	}
	if err := f.sess.HoldSelection(ctx, sel); err != nil {
		return types.BookingSelection{}, err
	}
	log.Printf("[checkout] held showtime=%d seats=%d amount=%.0f", sel.ShowtimeID, len(seats), sel.Amount)
	return sel, nil
}

// Pay creates the booking for the held selection and starts the mock
// payment. Guest details are required when nobody is signed in.
func (f *Flow) Pay(ctx context.Context, card Card, guest Guest) (Outcome, error) {
	sel, ok := f.sess.Selection()
	if !ok {
		return Outcome{}, sessions.ErrNoSelection
	}
	seats, err := json.Marshal(sel.Seats)
	if err != nil {
		return Outcome{}, err
	}
	req := types.BookingRequest{ShowtimeID: sel.ShowtimeID, Seats: string(seats), Amount: sel.Amount}
	if _, signedIn := f.sess.User(); !signedIn {
		if strings.TrimSpace(guest.Name) == "" || strings.TrimSpace(guest.Email) == "" {
			return Outcome{}, ErrGuestDetailsRequired
		}
		req.GuestName = strings.TrimSpace(guest.Name)
		req.GuestEmail = strings.TrimSpace(guest.Email)
	}

	booking, err := f.api.CreateBooking(ctx, req)
	if err != nil {
		return Outcome{}, &Failure{Message: backend.Message(err, "Payment failed"), Err: err}
	}
	if err := f.sess.RecordBookingID(ctx, booking.ID); err != nil {
		return Outcome{}, err
	}
	log.Printf("[checkout] booking created id=%d showtime=%d", booking.ID, sel.ShowtimeID)

	resp, err := f.api.InitiateMockPayment(ctx, types.PaymentRequest{
		BookingID:      booking.ID,
		CardNumber:     card.Number,
		ExpiryDate:     card.Expiry,
		CVV:            card.CVV,
		CardholderName: card.Holder,
		SimulateOTP:    true,
	})
	if err != nil {
		return Outcome{}, &Failure{Message: backend.Message(err, "Payment failed"), Err: err}
	}
	out := outcome(resp, booking.ID)
	if resp.Status == types.PaymentOTPRequired {
		log.Printf("[checkout] otp required booking=%d", booking.ID)
		return out, nil
	}
	return f.complete(ctx, out)
}

// ConfirmOTP finishes an OTP_REQUIRED payment. On failure the held
// selection is kept so payment can be retried.
func (f *Flow) ConfirmOTP(ctx context.Context, token, otp string) (Outcome, error) {
	resp, err := f.api.ConfirmOTP(ctx, types.OTPConfirmRequest{OTPToken: token, OTP: strings.TrimSpace(otp)})
	if err != nil {
		return Outcome{}, &Failure{Message: backend.Message(err, "OTP verification failed"), Err: err}
	}
	var bookingID int64
	if sel, ok := f.sess.Selection(); ok {
		bookingID = sel.BookingID
	}
	out := outcome(resp, bookingID)
	if resp.Status != types.PaymentSuccess {
		msg := resp.Message
		if msg == "" {
			msg = "Payment failed"
		}
		return out, &Failure{Message: msg}
	}
	return f.complete(ctx, out)
}

func (f *Flow) complete(ctx context.Context, out Outcome) (Outcome, error) {
	if err := f.sess.ReleaseSelection(ctx); err != nil {
		return out, err
	}
	log.Printf("[checkout] payment confirmed booking=%d txn=%s", out.BookingID, out.TransactionID)
	return out, nil
}

func outcome(resp types.PaymentResponse, bookingID int64) Outcome {
	out := Outcome{
		Status:        resp.Status,
		OTPToken:      resp.OTPToken,
		BookingID:     resp.BookingID,
		TransactionID: resp.TransactionID,
		Message:       resp.Message,
	}
	if out.BookingID == 0 {
		out.BookingID = bookingID
	}
	return out
}
