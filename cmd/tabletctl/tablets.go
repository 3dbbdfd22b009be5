package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTabletsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tablets",
		Short: "Count tablets and their transducers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Print the number of attached tablets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()
			n, err := client.TabletCount(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "transducers <tablet>",
		Short: "Print the number of transducers known to a tablet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tablet, err := parseUint32("tablet", args[0])
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()
			n, err := client.TransducerCountForTablet(ctx, tablet)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	})
	return cmd
}
