package assistant

import (
	"log"

	"cinevox/client/internal/types"
)

// confirmBooking resolves the movie id and navigates to seat selection. It
// reports true when resolution continues asynchronously on a catalog fetch.
func (a *Assistant) confirmBooking(seq int, slots types.SlotSet) bool {
	if id, ok := slots.ID(types.SlotMovieID); ok {
		a.navigate(seq, slots, id)
		return false
	}
	if !slots.Has(types.SlotMovieName) || a.deps.Catalog == nil {
		log.Printf("[assistant] turn seq=%d booking: no movie to resolve", seq)
		a.notify(types.NoticeError, msgMovieNotFound, "movie_not_found")
		return false
	}
	catalog := a.deps.Catalog
	ctx := a.runCtx
	epoch := a.epoch
	go func() {
		movies, err := catalog.Movies(ctx)
		a.post(bookingResolved{seq: seq, epoch: epoch, slots: slots, movies: movies, err: err})
	}()
	return true
}

func (a *Assistant) handleBookingResolved(e bookingResolved) {
	defer func() { a.processing = false }()
	if e.epoch != a.epoch {
		log.Printf("[assistant] turn seq=%d booking resolved after clear; discarded", e.seq)
		return
	}
	if e.err != nil {
		log.Printf("[assistant] turn seq=%d catalog fetch: %v", e.seq, e.err)
		a.notify(types.NoticeError, msgBookingError, "booking_error")
		return
	}
	name := e.slots.String(types.SlotMovieName)
	for _, m := range e.movies {
		if m.Title == name {
			a.navigate(e.seq, e.slots, m.ID)
			return
		}
	}
	log.Printf("[assistant] turn seq=%d movie %q not in catalog (%d titles)", e.seq, name, len(e.movies))
	a.notify(types.NoticeError, msgMovieNotFound, "movie_not_found")
}

func (a *Assistant) navigate(seq int, slots types.SlotSet, movieID int64) {
	showtimeID, _ := slots.ID(types.SlotShowtimeID)
	route := types.SeatSelectionRoute{
		ShowtimeID: showtimeID,
		MovieID:    movieID,
		NumSeats:   slots.IntOr(types.SlotNumSeats, 1),
		Date:       slots.String(types.SlotDate),
		Time:       slots.String(types.SlotTime),
	}
	metricNavigations.Inc()
	log.Printf("[assistant] turn seq=%d seat selection showtime=%d movie=%d seats=%d", seq, route.ShowtimeID, route.MovieID, route.NumSeats)
	a.deps.Navigator.SeatSelection(route)
}
