package main

import (
	"fmt"

	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/routing"
	"github.com/spf13/cobra"
)

// entityFlags select the entity a command addresses. Unset fields are zero.
type entityFlags struct {
	tablet      uint32
	transducer  uint32
	context     uint32
	control     uint32
	controlType string
	function    uint32
}

func (e *entityFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Uint32Var(&e.tablet, "tablet", 0, "tablet index (1-based)")
	f.Uint32Var(&e.transducer, "transducer", 0, "transducer index within --tablet")
	f.Uint32Var(&e.context, "context", 0, "context handle")
	f.Uint32Var(&e.control, "control", 0, "control index within --context")
	f.StringVar(&e.controlType, "control-type", "button", "control type (button|wheel|slider|mode_toggle)")
	f.Uint32Var(&e.function, "function", 0, "function index within --control")
}

// routingTable builds the most specific specifier the flags describe. With
// no flags it addresses the driver itself.
func (e *entityFlags) routingTable(cmd *cobra.Command) (desc.Descriptor, error) {
	f := cmd.Flags()
	switch {
	case f.Changed("context"):
		if f.Changed("tablet") || f.Changed("transducer") {
			return desc.Descriptor{}, fmt.Errorf("--context cannot be combined with --tablet or --transducer")
		}
		if !f.Changed("control") {
			return routing.Context(e.context)
		}
		ct, err := routing.ParseControlType(e.controlType)
		if err != nil {
			return desc.Descriptor{}, err
		}
		if f.Changed("function") {
			return routing.Function(e.context, e.control, ct, e.function)
		}
		return routing.Control(e.context, e.control, ct)
	case f.Changed("tablet"):
		if f.Changed("transducer") {
			return routing.Transducer(e.tablet, e.transducer)
		}
		return routing.Tablet(e.tablet)
	case f.Changed("transducer"), f.Changed("control"), f.Changed("function"):
		return desc.Descriptor{}, fmt.Errorf("--transducer needs --tablet; --control and --function need --context")
	default:
		return routing.Driver(), nil
	}
}
