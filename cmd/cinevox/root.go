package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cinevox",
		Short:         "cinevox: book movie tickets by voice or from the terminal",
		Long:          "cinevox talks to the booking backend: a voice booking assistant, the movie catalog, seat selection, mock checkout and account commands.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp(context.Background())
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newAssistCmd(app),
		newServeCmd(app),
		newMoviesCmd(app),
		newMovieCmd(app),
		newSeatsCmd(app),
		newCheckoutCmd(app),
		newBookingsCmd(app),
		newLoginCmd(app),
		newSignupCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newHealthCmd(app),
		newPanelTokenCmd(app),
	)

	return rootCmd
}
