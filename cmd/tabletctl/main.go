package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/tabletctl/internal/config"
	"github.com/danmuck/tabletctl/internal/driver"
	"github.com/danmuck/tabletctl/internal/logging"
	"github.com/danmuck/tabletctl/internal/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath    string
	targetNetwork string
	targetPath    string
	bundleID      string
	timeout       string
	priority      string
	logLevel      string

	cfg config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tabletctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "tabletctl",
		Short: "Query and control a tablet driver over its event socket",
		Long: `tabletctl addresses tablets, transducers, contexts, controls and functions
of a running tablet driver, reads and writes their attributes, and can host
a simulated driver for local development.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "TOML config file")
	flags.StringVar(&opts.targetNetwork, "network", "", "driver socket network (unix|tcp)")
	flags.StringVar(&opts.targetPath, "socket", "", "driver socket path or host:port")
	flags.StringVar(&opts.bundleID, "bundle-id", "", "driver bundle identifier")
	flags.StringVar(&opts.timeout, "timeout", "", `reply timeout (Go duration, or "none")`)
	flags.StringVar(&opts.priority, "priority", "", "event priority (normal|high)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")

	root.AddCommand(newTabletsCommand(opts))
	root.AddCommand(newContextCommand(opts))
	root.AddCommand(newAttrCommand(opts))
	root.AddCommand(newResendCommand(opts))
	root.AddCommand(newSimCommand(opts))
	root.AddCommand(newConfigCommand(opts))
	return root
}

// load resolves config file, then flag overrides, then logging.
func (o *options) load(cmd *cobra.Command) error {
	logging.ConfigureRuntime()
	if o.logLevel != "" {
		lvl, ok := logging.ParseLevel(o.logLevel)
		if !ok {
			return fmt.Errorf("unknown log level %q", o.logLevel)
		}
		zerolog.SetGlobalLevel(lvl)
	}

	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("network") {
		cfg.Target.Network = o.targetNetwork
	}
	if cmd.Flags().Changed("socket") {
		cfg.Target.Path = o.targetPath
	}
	if cmd.Flags().Changed("bundle-id") {
		cfg.Target.BundleID = o.bundleID
	}
	if cmd.Flags().Changed("priority") {
		p, err := transport.ParsePriority(o.priority)
		if err != nil {
			return err
		}
		cfg.Priority = p
	}
	if cmd.Flags().Changed("timeout") {
		d, err := config.ParseTimeout(o.timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func (o *options) client() (*driver.Client, error) {
	return driver.NewClient(driver.ClientConfig{
		Target:   o.cfg.Target,
		Priority: o.cfg.Priority,
		Timeout:  o.cfg.Timeout,
	}, transport.NewStream(o.cfg.Session))
}

// callContext bounds one CLI invocation. NoTimeout leaves only signal
// cancellation in place.
func (o *options) callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	wait := transport.ResolveTimeout(o.cfg.Timeout, o.cfg.Session.DefaultTimeout)
	if wait == transport.NoTimeout {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), wait+o.cfg.Session.ConnectTimeout+o.cfg.Session.WriteTimeout)
}
