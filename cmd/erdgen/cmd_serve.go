package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/erdlab/erdgen/internal/server"
	"github.com/erdlab/erdgen/internal/ui"
	"github.com/erdlab/erdgen/internal/xerr"
)

// serveCmd starts the editor-facing HTTP API.
func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the editor-facing HTTP API",
		Long: `Starts the HTTP facade used by the visual editor:

  POST /api/generate - model snapshot in, DDL script and warnings out
  POST /api/import   - OpenAPI/Swagger document in, model fragment out
  GET  /api/types    - the shared type and rule vocabulary
  GET  /healthz      - liveness probe

The server shuts down gracefully on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ListenAddr
			}

			gin.SetMode(gin.ReleaseMode)
			srv := server.NewServer(addr, version)

			fmt.Println(ui.Header("erdgen " + version))
			fmt.Println(ui.Info("  POST /api/generate  model snapshot in, DDL out"))
			fmt.Println(ui.Info("  POST /api/import    OpenAPI document in, model fragment out"))
			fmt.Println(ui.Info("  GET  /api/types     shared type and rule vocabulary"))
			fmt.Println()
			fmt.Println(ui.Success("listening on") + " " + ui.Primary("http://localhost"+addr))

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- xerr.Wrap(xerr.ErrServer, err, "server failed")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			fmt.Println(ui.Dim("shutting down..."))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return xerr.Wrap(xerr.ErrServer, err, "server shutdown")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default :8080)")

	return cmd
}
