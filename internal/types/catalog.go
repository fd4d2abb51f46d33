package types

import "time"

type Movie struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Genre     string     `json:"genre,omitempty"`
	Duration  int        `json:"duration,omitempty"`
	Synopsis  string     `json:"synopsis,omitempty"`
	PosterURL string     `json:"posterUrl,omitempty"`
	Showtimes []Showtime `json:"showtimes,omitempty"`
}

type Showtime struct {
	ID             int64  `json:"id"`
	StartTime      string `json:"startTime"`
	Theater        string `json:"theater,omitempty"`
	City           string `json:"city,omitempty"`
	SeatsAvailable int    `json:"seatsAvailable"`
	SeatsTotal     int    `json:"seatsTotal"`
	SeatMap        string `json:"seatMap,omitempty"` // JSON-encoded []Seat
}

// Seat is one cell of a showtime seat map. Row and Seat are 1-based.
type Seat struct {
	Row       int  `json:"row" toml:"row"`
	Seat      int  `json:"seat" toml:"seat"`
	Available bool `json:"available" toml:"available"`
}

type BookingRequest struct {
	ShowtimeID int64   `json:"showtimeId"`
	Seats      string  `json:"seats"` // JSON-encoded []Seat
	Amount     float64 `json:"amount"`
	GuestName  string  `json:"guestName,omitempty"`
	GuestEmail string  `json:"guestEmail,omitempty"`
}

type Booking struct {
	ID         int64   `json:"id"`
	Status     string  `json:"status,omitempty"`
	Seats      string  `json:"seats,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
	GuestName  string  `json:"guestName,omitempty"`
	GuestEmail string  `json:"guestEmail,omitempty"`
	CreatedAt  string  `json:"createdAt,omitempty"`
}

// BookingSelection is the in-progress booking held between seat selection
// and checkout.
type BookingSelection struct {
	ShowtimeID int64     `json:"showtimeId" toml:"showtime_id"`
	MovieID    int64     `json:"movieId,omitempty" toml:"movie_id,omitempty"`
	MovieTitle string    `json:"movieTitle" toml:"movie_title"`
	Theater    string    `json:"theater,omitempty" toml:"theater,omitempty"`
	City       string    `json:"city,omitempty" toml:"city,omitempty"`
	StartTime  string    `json:"startTime,omitempty" toml:"start_time,omitempty"`
	Seats      []Seat    `json:"seats" toml:"seats"`
	Amount     float64   `json:"amount" toml:"amount"`
	BookingID  int64     `json:"id,omitempty" toml:"booking_id,omitempty"`
	HeldAt     time.Time `json:"heldAt" toml:"held_at"`
}

type PaymentRequest struct {
	BookingID      int64  `json:"bookingId"`
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholderName"`
	SimulateOTP    bool   `json:"simulateOTP"`
}

const (
	PaymentOTPRequired = "OTP_REQUIRED"
	PaymentSuccess     = "SUCCESS"
	PaymentFailed      = "FAILED"
)

type PaymentResponse struct {
	Status        string `json:"status"`
	OTPToken      string `json:"otp_token,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	BookingID     int64  `json:"booking_id,omitempty"`
	Message       string `json:"message,omitempty"`
}

type OTPConfirmRequest struct {
	OTPToken string `json:"otp_token"`
	OTP      string `json:"otp"`
}

type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	UserID int64  `json:"userId"`
}

type User struct {
	Email  string `json:"email" toml:"email"`
	Name   string `json:"name" toml:"name"`
	UserID int64  `json:"userId" toml:"user_id"`
}
