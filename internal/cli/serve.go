package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/reqcheck/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve import checks over HTTP",
		Long: `Run an HTTP service that checks Python sources against the project's
declared requirements.

  POST /v1/check          {"filename": "pkg/mod.py", "source": "..."}
  GET  /v1/requirements   declaration source and resolved requirements
  POST /v1/reset          re-read the project's declarations
  GET  /healthz           liveness
  GET  /metrics           Prometheus metrics

Declaration files are watched and re-read when they change, unless
--no-watch is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, err := c.newEngine(cmd)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			srv, err := server.New(server.Options{
				Engine:   engine,
				Logger:   c.Logger,
				Registry: registry,
			})
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			if !noWatch && engine.RootDir() != "" {
				var files []string
				if cfg.RequirementsFile != "" {
					files = append(files, resolvePath(engine.RootDir(), cfg.RequirementsFile))
				}
				w, err := server.NewWatcher(server.WatchConfig{
					Root:   engine.RootDir(),
					Files:  files,
					Logger: c.Logger,
					OnChange: func(_ context.Context, changed []string) {
						srv.Reset("changed " + strings.Join(changed, ", "))
					},
				})
				if err != nil {
					return err
				}
				g.Go(func() error { return w.Run(ctx) })
			}
			g.Go(func() error { return srv.ListenAndServe(ctx, addr) })
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch declaration files")
	return cmd
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
