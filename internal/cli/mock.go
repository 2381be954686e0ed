package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrysoftwarecorp/route-nest/internal/config"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/metrics"
	"github.com/harrysoftwarecorp/route-nest/internal/mockapi"
	"github.com/harrysoftwarecorp/route-nest/internal/paths"
	"github.com/harrysoftwarecorp/route-nest/internal/routing"
)

// dbStatsInterval is how often connection pool gauges are sampled.
const dbStatsInterval = 15 * time.Second

// mockFlags locate the mock database.
type mockFlags struct {
	dataDir string
	memory  bool
}

func (m *mockFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.dataDir, "data-dir", "", "directory of the mock database (default: platform data dir)")
	cmd.Flags().BoolVar(&m.memory, "memory", false, "keep the data in memory only")
}

func newMockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Run the development RouteNest API",
	}
	cmd.AddCommand(newMockServeCmd(a), newMockExportCmd(a), newMockImportCmd(a))
	return cmd
}

// openStore opens the mock database the flags point at.
func (a *app) openStore(ctx context.Context, mf *mockFlags, publicURL string) (*mockapi.Store, error) {
	path := mockapi.MemoryPath
	if !mf.memory {
		dir, err := paths.ResolveDataDir(mf.dataDir, a.cfg.Mock.DataDir)
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		path = filepath.Join(dir, paths.DatabaseFileName)
	}
	var router routing.Router
	if a.cfg.Routing.Engine == config.EngineOSRM {
		router = a.router(a.logger)
	}
	store, err := mockapi.Open(ctx, mockapi.Options{
		Path:      path,
		Router:    router,
		Logger:    a.logger,
		PublicURL: publicURL,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("opened mock store", slog.String("path", path))
	return store, nil
}

func newMockServeCmd(a *app) *cobra.Command {
	var (
		mf     mockFlags
		addr   string
		noSeed bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mock API",
		Long: `Serve the RouteNest REST API from a local SQLite database. An empty
database is seeded with sample trips unless --no-seed is given. Prometheus
metrics are served at /metrics.

Example:
  routenest mock serve
  routenest mock serve --addr localhost:9000 --memory`,
		Args: userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mc := a.cfg.Mock
			if !cmd.Flags().Changed("addr") {
				addr = mc.Addr
			}
			publicURL := mc.PublicURL
			if publicURL == "" {
				publicURL = "http://" + addr
			}

			store, err := a.openStore(ctx, &mf, publicURL)
			if err != nil {
				return err
			}
			defer logging.SafeClose(a.logger, store, "mock store")

			if mc.Seed && !noSeed {
				n, err := store.Seed(ctx)
				if err != nil {
					return err
				}
				if n > 0 {
					a.logger.Info("seeded mock store", slog.Int("trips", n))
				}
			}

			m := metrics.New(a.logger)
			m.StartDBStatsCollector(store.DB(), dbStatsInterval)
			defer m.Shutdown()

			srv := mockapi.NewServer(store, mockapi.ServerOptions{
				Logger:    a.logger,
				Metrics:   m,
				RateLimit: mc.RateLimit,
				Burst:     mc.Burst,
			})
			defer srv.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Mock API on http://%s\n", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	mf.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config mock.addr)")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "do not seed an empty database")
	return cmd
}

func newMockExportCmd(a *app) *cobra.Command {
	mf := &mockFlags{}
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write every trip to a JSON Lines file",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context(), mf, a.cfg.Mock.PublicURL)
			if err != nil {
				return err
			}
			defer logging.SafeClose(a.logger, store, "mock store")
			n, err := store.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printCount(cmd, "exported", "Exported", n, args[0])
		},
	}
	mf.register(cmd)
	return cmd
}

func newMockImportCmd(a *app) *cobra.Command {
	mf := &mockFlags{}
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load trips from a JSON Lines file",
		Long: `Load trips from a JSON Lines file written by export. Trips whose id
already exists are skipped.`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context(), mf, a.cfg.Mock.PublicURL)
			if err != nil {
				return err
			}
			defer logging.SafeClose(a.logger, store, "mock store")
			n, err := store.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printCount(cmd, "imported", "Imported", n, args[0])
		},
	}
	mf.register(cmd)
	return cmd
}

func (a *app) printCount(cmd *cobra.Command, key, label string, n int, file string) error {
	out := map[string]any{key: n, "file": file}
	return a.print(cmd, out, func(w io.Writer) {
		fmt.Fprintf(w, "%s %d trips (%s)\n", label, n, file)
	})
}
