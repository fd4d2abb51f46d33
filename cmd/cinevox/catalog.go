package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinevox/client/internal/checkout"
	"cinevox/client/internal/types"
)

func newMoviesCmd(app *app) *cobra.Command {
	var search string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "List movies, optionally filtered by title",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				movies []types.Movie
				err    error
			)
			if strings.TrimSpace(search) != "" {
				movies, err = app.api.SearchMovies(cmd.Context(), search)
			} else {
				movies, err = app.api.Movies(cmd.Context())
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), movies)
			}
			for _, m := range movies {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%dmin\t%d showtimes\n",
					m.ID, m.Title, orDash(m.Genre), m.Duration, len(m.Showtimes))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by title")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newMovieCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "movie <id>",
		Short: "Show a movie and its showtimes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "movie id")
			if err != nil {
				return err
			}
			m, err := app.api.Movie(cmd.Context(), id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "%s (%s, %dmin)\n", m.Title, orDash(m.Genre), m.Duration)
			if m.Synopsis != "" {
				_, _ = fmt.Fprintf(w, "%s\n", m.Synopsis)
			}
			if p := app.api.PosterURL(m.PosterURL); p != "" {
				_, _ = fmt.Fprintf(w, "poster: %s\n", p)
			}
			for _, st := range m.Showtimes {
				_, _ = fmt.Fprintf(w, "  showtime %d\t%s\t%s, %s\t%d/%d seats free\n",
					st.ID, st.StartTime, orDash(st.Theater), orDash(st.City), st.SeatsAvailable, st.SeatsTotal)
			}
			return nil
		},
	}
}

func newSeatsCmd(app *app) *cobra.Command {
	var count int
	var pick string
	cmd := &cobra.Command{
		Use:   "seats <showtimeId>",
		Short: "Show the seat map and hold seats for checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showtimeID, err := parseID(args[0], "showtime id")
			if err != nil {
				return err
			}
			plan, err := app.flow.Prepare(cmd.Context(), showtimeID)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "%s at %s, %s\n", plan.Movie.Title, plan.Showtime.StartTime, orDash(plan.Showtime.Theater))
			_, _ = fmt.Fprint(w, checkout.SeatGrid(plan.Seats))

			var seats []types.Seat
			switch {
			case pick != "":
				seats, err = checkout.Select(plan.Seats, strings.Split(pick, ","))
			case count > 0:
				seats, err = checkout.AutoSelect(plan.Seats, count)
			default:
				return nil
			}
			if err != nil {
				return err
			}
			sel, err := app.flow.Hold(cmd.Context(), plan, seats)
			if err != nil {
				return err
			}
			printHeld(w, sel)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "seats", 0, "hold the first N available seats")
	cmd.Flags().StringVar(&pick, "pick", "", "hold specific seats, e.g. A1,A2")
	cmd.MarkFlagsMutuallyExclusive("seats", "pick")
	return cmd
}

func printHeld(w io.Writer, sel types.BookingSelection) {
	labels := make([]string, 0, len(sel.Seats))
	for _, s := range sel.Seats {
		labels = append(labels, checkout.SeatLabel(s))
	}
	_, _ = fmt.Fprintf(w, "held %d seats (%s) for %s, amount %.0f. Run `cinevox checkout` to pay.\n",
		len(sel.Seats), strings.Join(labels, ","), sel.MovieTitle, sel.Amount)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return id, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
