package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cinevox/client/internal/types"
)

// PricePerSeat is the flat ticket price in rupees.
const PricePerSeat = 250.0

var (
	ErrNoSeats          = errors.New("no seats selected")
	ErrSeatUnavailable  = errors.New("seat not available")
	ErrNotEnoughSeats   = errors.New("not enough available seats")
	ErrShowtimeNotFound = errors.New("showtime not found")
)

// ParseSeatMap decodes the JSON seat list stored on a showtime.
func ParseSeatMap(raw string) ([]types.Seat, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var seats []types.Seat
	if err := json.Unmarshal([]byte(raw), &seats); err != nil {
		return nil, fmt.Errorf("seat map: %w", err)
	}
	sort.SliceStable(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Seat < seats[j].Seat
	})
	return seats, nil
}

// SeatLabel renders row 1 seat 3 as "A3".
func SeatLabel(s types.Seat) string {
	return fmt.Sprintf("%c%d", rune('A'+s.Row-1), s.Seat)
}

// ParseSeatLabel is the inverse of SeatLabel.
func ParseSeatLabel(label string) (row, seat int, err error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if len(label) < 2 || label[0] < 'A' || label[0] > 'Z' {
		return 0, 0, fmt.Errorf("bad seat label %q", label)
	}
	n, err := strconv.Atoi(label[1:])
	if err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("bad seat label %q", label)
	}
	return int(label[0]-'A') + 1, n, nil
}

// Select picks the named seats. Every seat must exist and be available.
func Select(seatMap []types.Seat, labels []string) ([]types.Seat, error) {
	if len(labels) == 0 {
		return nil, ErrNoSeats
	}
	index := make(map[[2]int]types.Seat, len(seatMap))
	for _, s := range seatMap {
		index[[2]int{s.Row, s.Seat}] = s
	}
	seen := map[[2]int]bool{}
	var out []types.Seat
	for _, l := range labels {
		row, seat, err := ParseSeatLabel(l)
		if err != nil {
			return nil, err
		}
		key := [2]int{row, seat}
		s, ok := index[key]
		if !ok || !s.Available {
			return nil, fmt.Errorf("%w: %s", ErrSeatUnavailable, strings.ToUpper(strings.TrimSpace(l)))
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out, nil
}

// AutoSelect takes the first n available seats in row order.
func AutoSelect(seatMap []types.Seat, n int) ([]types.Seat, error) {
	if n <= 0 {
		return nil, ErrNoSeats
	}
	out := make([]types.Seat, 0, n)
	for _, s := range seatMap {
		if s.Available {
			out = append(out, s)
			if len(out) == n {
				return out, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughSeats, n, len(out))
}

func Price(seats int) float64 { return float64(seats) * PricePerSeat }

// FindShowtime locates a showtime and its movie in the catalog.
func FindShowtime(movies []types.Movie, showtimeID int64) (types.Movie, types.Showtime, bool) {
	for _, m := range movies {
		for _, st := range m.Showtimes {
			if st.ID == showtimeID {
				return m, st, true
			}
		}
	}
	return types.Movie{}, types.Showtime{}, false
}

// SeatGrid renders the seat map one row per line, "[]" free and "xx" taken.
func SeatGrid(seatMap []types.Seat) string {
	var b strings.Builder
	row := 0
	for _, s := range seatMap {
		if s.Row != row {
			if row != 0 {
				b.WriteByte('\n')
			}
			row = s.Row
			fmt.Fprintf(&b, "%c ", rune('A'+row-1))
		}
		if s.Available {
			b.WriteString("[]")
		} else {
			b.WriteString("xx")
		}
	}
	if row != 0 {
		b.WriteByte('\n')
	}
	return b.String()
}
