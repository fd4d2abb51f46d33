package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cinevox/client/internal/auth"
	"cinevox/client/internal/health"
)

func newHealthCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the booking backend and the speech providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			st := health.CheckAll(ctx, app.cfg)
			_, _ = fmt.Fprint(cmd.OutOrStdout(), st.String())
			if !st.OK {
				return errors.New("health check failed")
			}
			return nil
		},
	}
}

func newPanelTokenCmd(app *app) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "panel-token",
		Short: "Mint a token for the panel API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exp := time.Now().Add(time.Duration(app.cfg.Panel.TokenTTLMin) * time.Minute)
			tok, err := auth.GeneratePanelToken(app.cfg.Panel.TokenSecret, subject, exp)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "panel", "token subject")
	return cmd
}
