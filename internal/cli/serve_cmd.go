package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/zenstory/internal/config"
	"github.com/alexanderramin/zenstory/internal/web"
)

// storyTimeout bounds one full story pipeline on the web surface.
const storyTimeout = 3 * time.Minute

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var noMCP bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI, JSON API and MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.Addr
			}

			srv := newWebServer(app, !noMCP)
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.ListenAndServe(gctx, addr) })
			if app.Config.Path != "" {
				g.Go(func() error {
					return config.Watch(gctx, app.Config.Path, app.Log.Logger, func(cfg *config.Config) {
						reload(app, srv, cfg)
					})
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :7860)")
	cmd.Flags().BoolVar(&noMCP, "no-mcp", false, "Do not mount the MCP endpoint at /mcp")
	return cmd
}

// newWebServer assembles the web surface from the app's services.
func newWebServer(app *App, mountMCP bool) *web.Server {
	deps := web.Deps{
		Catalog:  app.Catalog,
		Resolver: app.Resolver,
		Renderer: app.Renderer,
		Tonight:  app.Tonight,
		Library:  app.Library,
		Canvases: app.Canvases,
		Cache:    app.Cache,
		Log:      app.Log.Logger,
	}
	if mountMCP && app.MCP != nil {
		deps.MCP = app.MCP
	}
	return web.New(deps, web.Options{
		CORSOrigins:  app.Config.CORSOrigins,
		RateLimit:    app.Config.RateLimit.Requests,
		RateWindow:   app.Config.RateWindow(),
		StoryTimeout: storyTimeout,
		TrustProxy:   app.Config.RateLimit.TrustProxy,
	})
}

// reload applies the settings that can change without a restart.
func reload(app *App, srv *web.Server, cfg *config.Config) {
	if err := app.Log.SetLevel(cfg.Log.Level); err != nil {
		app.Log.Warn("ignoring log level", zap.String("level", cfg.Log.Level), zap.Error(err))
	}
	srv.Limiter().SetLimit(cfg.RateLimit.Requests, cfg.RateWindow())
	app.Config.Log.Level = cfg.Log.Level
	app.Config.RateLimit = cfg.RateLimit
	app.Config.Bedtime = cfg.Bedtime
}

func newMCPCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveStdio(ctx, app, cmd)
		},
	}
}

func serveStdio(ctx context.Context, app *App, cmd *cobra.Command) error {
	if app.MCP == nil {
		return errors.New("mcp server is not configured")
	}
	app.Log.Info("mcp stdio server starting")
	return app.MCP.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
