package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/conneroisu/facet/internal/config"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the site over HTTP",
	Long: `Serve the site over HTTP with language negotiation and a response cache.

Examples:
  facet serve                          # Serve on localhost:8080
  facet serve --port 9000 --engine gin # Use the gin router
  facet serve --assets ./public --watch  # Reload assets on change`,
	PreRunE: bindFlags(map[string]string{
		"server.port":       "port",
		"server.host":       "host",
		"server.engine":     "engine",
		"server.base_url":   "base-url",
		"site.assets_dir":   "assets",
		"site.watch_assets": "watch",
	}),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().String("engine", "stdlib", "HTTP router (stdlib, gin)")
	serveCmd.Flags().String("base-url", "", "Absolute URL the site is published under")
	serveCmd.Flags().String("assets", "", "Directory of static assets")
	serveCmd.Flags().Bool("watch", false, "Reload assets when the directory changes")
	serveCmd.Flags().Bool("warm", false, "Render every static page before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := buildApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("building site: %w", err)
	}
	srv, err := a.newServer()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if warm, _ := cmd.Flags().GetBool("warm"); warm {
		if err := srv.Warm(ctx); err != nil {
			return err
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error(shutdownCtx, err, "Error during server shutdown")
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s\n", a.site.Name(), srv.Addr())
	return srv.Start(ctx)
}
