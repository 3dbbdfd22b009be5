package main

import (
	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/spf13/cobra"
)

func newResendCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resend <event-type>",
		Short: "Ask the driver to replay its last tablet event of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventType, err := desc.ParseTag(args[0])
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()
			client.ResendLastTabletEventOfType(ctx, eventType)
			return nil
		},
	}
}
