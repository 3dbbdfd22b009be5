package main

import (
	"fmt"
	"strconv"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/routing"
	"github.com/spf13/cobra"
)

func newAttrCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attr",
		Short: "Read and write entity attributes",
		Long: `Attributes are four-character codes such as pnam, Wmdl or Wprs. The
entity is chosen with --tablet/--transducer or --context/--control/--function;
with none of them the driver itself is addressed.`,
	}

	var getEntity entityFlags
	var getType string
	get := &cobra.Command{
		Use:   "get <attr>",
		Short: "Print an attribute value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attr, err := desc.ParseTag(args[0])
			if err != nil {
				return err
			}
			dataType, err := desc.ParseTag(getType)
			if err != nil {
				return err
			}
			rt, err := getEntity.routingTable(cmd)
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()
			v, err := client.DataForAttribute(ctx, attr, dataType, rt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
			return nil
		},
	}
	getEntity.register(get)
	get.Flags().StringVar(&getType, "as", "****", "requested data type")
	cmd.AddCommand(get)

	var setEntity entityFlags
	var setType string
	set := &cobra.Command{
		Use:   "set <attr> <value>",
		Short: "Write an attribute value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attr, err := desc.ParseTag(args[0])
			if err != nil {
				return err
			}
			dataType, err := desc.ParseTag(setType)
			if err != nil {
				return err
			}
			raw, err := encodeValue(dataType, args[1])
			if err != nil {
				return err
			}
			rt, err := setEntity.routingTable(cmd)
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()
			ok, err := client.SetBytes(ctx, raw, dataType, attr, rt)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("driver refused to set %s", attr)
			}
			return nil
		},
	}
	setEntity.register(set)
	set.Flags().StringVar(&setType, "as", "utf8", "data type of the value")
	cmd.AddCommand(set)

	var pathEntity entityFlags
	path := &cobra.Command{
		Use:   "path",
		Short: "Print the routing table the entity flags build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := pathEntity.routingTable(cmd)
			if err != nil {
				return err
			}
			p, err := routing.Path(rt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			fmt.Fprintln(cmd.OutOrStdout(), rt.String())
			return nil
		},
	}
	pathEntity.register(path)
	cmd.AddCommand(path)
	return cmd
}

// encodeValue converts a command-line value into the payload bytes of a
// descriptor of type tag.
func encodeValue(tag desc.TypeTag, s string) ([]byte, error) {
	switch tag {
	case desc.TypeUInt32:
		v, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("parse %s value %q: %w", tag, s, err)
		}
		return desc.NewUInt32(uint32(v)).Bytes(), nil
	case desc.TypeSInt32:
		v, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("parse %s value %q: %w", tag, s, err)
		}
		return desc.NewSInt32(int32(v)).Bytes(), nil
	case desc.TypeBoolean:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("parse %s value %q: %w", tag, s, err)
		}
		return desc.NewBool(v).Bytes(), nil
	case desc.TypeType, desc.TypeEnumerated:
		v, err := desc.ParseTag(s)
		if err != nil {
			return nil, err
		}
		return desc.NewType(v).Bytes(), nil
	default:
		return []byte(s), nil
	}
}

func formatValue(v desc.Descriptor) string {
	if s, err := v.Text(); err == nil {
		return s
	}
	if n, err := v.UInt32(); err == nil {
		return strconv.FormatUint(uint64(n), 10)
	}
	if b, err := v.Bool(); err == nil {
		return strconv.FormatBool(b)
	}
	return v.String()
}
