package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"orderbot/internal/domain"
)

func newDispatchCmd(opts *options) *cobra.Command {
	var (
		from       string
		businessID string
		kind       string
	)
	cmd := &cobra.Command{
		Use:   "dispatch [text]",
		Short: "Send one customer message through the bot and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := domain.InboundMessage{
				From:       from,
				Text:       strings.Join(args, " "),
				Timestamp:  time.Now().UTC(),
				Kind:       domain.MessageKind(strings.ToLower(kind)),
				BusinessID: businessID,
			}
			if !msg.Kind.Valid() {
				return fmt.Errorf("unsupported message type %q", kind)
			}

			bot, err := opts.build(cmd)
			if err != nil {
				return err
			}
			resp := bot.Dispatcher.HandleIncomingMessage(cmd.Context(), msg)
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "customer phone number")
	cmd.Flags().StringVar(&businessID, "business", "", "business id")
	cmd.Flags().StringVar(&kind, "type", string(domain.KindText), "message type: text, image, location or document")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("business")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
