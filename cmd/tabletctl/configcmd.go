package main

import (
	"fmt"

	"github.com/danmuck/tabletctl/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCommand(_ *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or validate a tabletctl config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a config template with default values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <path>",
		Short: "Load a config file and report errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", args[0])
			return nil
		},
	})
	return cmd
}
