package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cinevox/client/internal/types"
)

func newLoginCmd(app *app) *cobra.Command {
	var creds types.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the booking backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := readPassword(cmd, &creds); err != nil {
				return err
			}
			resp, err := app.api.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			if err := app.sess.SignIn(cmd.Context(), resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", orDash(resp.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "password; prompted when omitted")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignupCmd(app *app) *cobra.Command {
	var creds types.Credentials
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := readPassword(cmd, &creds); err != nil {
				return err
			}
			resp, err := app.api.Signup(cmd.Context(), creds)
			if err != nil {
				return err
			}
			if err := app.sess.SignIn(cmd.Context(), resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account created; signed in as %s\n", orDash(resp.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Name, "name", "", "display name")
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "password; prompted when omitted")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.sess.SignOut(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and any held seats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if u, ok := app.sess.User(); ok {
				_, _ = fmt.Fprintf(w, "signed in: %s <%s> (user %d)\n", orDash(u.Name), orDash(u.Email), u.UserID)
			} else {
				_, _ = fmt.Fprintln(w, "not signed in")
			}
			if sel, ok := app.sess.Selection(); ok {
				printHeld(w, sel)
			}
			return nil
		},
	}
}

func newBookingsCmd(app *app) *cobra.Command {
	var guestEmail string
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List your bookings, or a guest's by email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				list []types.Booking
				err  error
			)
			switch {
			case guestEmail != "":
				list, err = app.api.GuestBookings(cmd.Context(), guestEmail)
			case app.sess.Token() != "":
				list, err = app.api.MyBookings(cmd.Context())
			default:
				return errors.New("sign in with `cinevox login` or pass --guest <email>")
			}
			if err != nil {
				return err
			}
			if len(list) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no bookings")
				return nil
			}
			for _, b := range list {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%.0f\t%s\n", b.ID, orDash(b.Status), b.Amount, orDash(b.CreatedAt))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&guestEmail, "guest", "", "guest email used at checkout")
	return cmd
}

func readPassword(cmd *cobra.Command, creds *types.Credentials) error {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Password != "" {
		return nil
	}
	pw, err := prompt(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), "password: ")
	if err != nil {
		return err
	}
	if pw == "" {
		return errors.New("password required")
	}
	creds.Password = pw
	return nil
}
