package main

import (
	"fmt"
	"strconv"

	"github.com/danmuck/tabletctl/internal/protocol/schema"
	"github.com/danmuck/tabletctl/internal/routing"
	"github.com/spf13/cobra"
)

func newContextCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Create, destroy and inspect driver contexts",
	}

	var kind string
	create := &cobra.Command{
		Use:   "create <tablet>",
		Short: "Create a context on a tablet and print its handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tablet, err := parseUint32("tablet", args[0])
			if err != nil {
				return err
			}
			ct, err := parseContextType(kind)
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()
			handle, err := client.CreateContextForTablet(ctx, tablet, ct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d (0x%x)\n", handle, handle)
			return nil
		},
	}
	create.Flags().StringVar(&kind, "type", "default", "context type (blank|default)")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "destroy <handle>",
		Short: "Destroy a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := parseUint32("handle", args[0])
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()
			return client.DestroyContext(ctx, handle)
		},
	})

	var controlType string
	controls := &cobra.Command{
		Use:   "controls <handle>",
		Short: "Print the number of controls of a type in a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := parseUint32("handle", args[0])
			if err != nil {
				return err
			}
			ct, err := routing.ParseControlType(controlType)
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()
			n, err := client.ControlCountOfContext(ctx, handle, ct)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	controls.Flags().StringVar(&controlType, "control-type", "button", "control type (button|wheel|slider|mode_toggle)")
	cmd.AddCommand(controls)

	functions := &cobra.Command{
		Use:   "functions <handle> <control>",
		Short: "Print the number of functions of a control",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := parseUint32("handle", args[0])
			if err != nil {
				return err
			}
			control, err := parseUint32("control", args[1])
			if err != nil {
				return err
			}
			ct, err := routing.ParseControlType(controlType)
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()
			n, err := client.FunctionCountOfControl(ctx, handle, control, ct)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	functions.Flags().StringVar(&controlType, "control-type", "button", "control type (button|wheel|slider|mode_toggle)")
	cmd.AddCommand(functions)
	return cmd
}

func parseContextType(s string) (schema.ContextType, error) {
	for _, ct := range []schema.ContextType{schema.ContextTypeBlank, schema.ContextTypeDefault} {
		if ct.String() == s {
			return ct, nil
		}
	}
	return 0, fmt.Errorf("unknown context type %q", s)
}

// parseUint32 accepts decimal or 0x-prefixed hex.
func parseUint32(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, s, err)
	}
	return uint32(v), nil
}
