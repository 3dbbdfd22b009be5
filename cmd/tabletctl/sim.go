package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/danmuck/tabletctl/internal/driversim"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newSimCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a simulated tablet driver",
	}

	var adminAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulated driver on the configured socket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("admin") {
				cfg.Sim.AdminAddr = adminAddr
			}
			if cfg.Target.Network == "unix" {
				if err := os.Remove(cfg.Target.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("remove stale socket: %w", err)
				}
			}

			sim := driversim.NewServer(cfg.SimulatorConfig())
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return sim.ListenAndServe(ctx, cfg.Target.Network, cfg.Target.Path)
			})
			if cfg.Sim.AdminAddr != "" {
				g.Go(func() error {
					return driversim.ServeAdmin(ctx, cfg.Sim.AdminAddr, driversim.AdminRouter(sim, cfg.Sim.CorsOrigins))
				})
			}
			log.Info().Str("target", cfg.Target.String()).Str("admin", cfg.Sim.AdminAddr).Msg("tabletctl sim serving")
			return g.Wait()
		},
	}
	serve.Flags().StringVar(&adminAddr, "admin", "", `admin HTTP address ("" disables)`)
	cmd.AddCommand(serve)
	return cmd
}
