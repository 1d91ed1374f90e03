package main

import (
	"github.com/spf13/cobra"

	"orderbot/internal/usecase"
)

func newRemindCmd(opts *options) *cobra.Command {
	var businessID string
	cmd := &cobra.Command{
		Use:   "remind <order-id>",
		Short: "Compose the payment reminder of an unpaid order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := opts.build(cmd)
			if err != nil {
				return err
			}
			out, err := bot.Reminders.PaymentReminder(cmd.Context(), usecase.PaymentReminderInput{
				BusinessID: businessID,
				OrderID:    args[0],
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&businessID, "business", "", "business id")
	_ = cmd.MarkFlagRequired("business")
	return cmd
}
