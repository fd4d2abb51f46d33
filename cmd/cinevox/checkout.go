package main

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cinevox/client/internal/checkout"
	"cinevox/client/internal/types"
)

func newCheckoutCmd(app *app) *cobra.Command {
	var card checkout.Card
	var guest checkout.Guest
	var otp string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Pay for the held seats with the mock card payment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			sel, ok := app.sess.Selection()
			if !ok {
				return errors.New("no seats held; run `cinevox seats <showtimeId> --seats N` first")
			}
			_, _ = fmt.Fprintf(w, "paying %.0f for %d seats, %s\n", sel.Amount, len(sel.Seats), sel.MovieTitle)

			out, err := app.flow.Pay(cmd.Context(), card, guest)
			if err != nil {
				return userFacing(err)
			}
			if out.Status == types.PaymentOTPRequired {
				code := otp
				if code == "" {
					in := bufio.NewReader(cmd.InOrStdin())
					code, err = prompt(in, w, fmt.Sprintf("OTP (test OTP: %s): ", checkout.TestOTP))
					if err != nil {
						return err
					}
				}
				out, err = app.flow.ConfirmOTP(cmd.Context(), out.OTPToken, code)
				if err != nil {
					return userFacing(err)
				}
			}
			_, _ = fmt.Fprintf(w, "payment successful: booking %d, transaction %s\n", out.BookingID, orDash(out.TransactionID))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&card.Number, "card", "4111111111111111", "card number")
	f.StringVar(&card.Expiry, "expiry", "12/30", "card expiry MM/YY")
	f.StringVar(&card.CVV, "cvv", "123", "card CVV")
	f.StringVar(&card.Holder, "holder", "", "cardholder name")
	f.StringVar(&guest.Name, "name", "", "guest name (required when signed out)")
	f.StringVar(&guest.Email, "email", "", "guest email (required when signed out)")
	f.StringVar(&otp, "otp", "", "OTP; prompted when omitted")
	return cmd
}

// userFacing turns a checkout failure into its user message.
func userFacing(err error) error {
	var f *checkout.Failure
	if errors.As(err, &f) {
		return errors.New(f.Message)
	}
	return err
}
