// Command bookstore serves a JSON:API bookstore built with the
// github.com/bjaus/endpoints framework and an in-memory store.
//
// Run:
//
//	go run ./cmd/bookstore serve -c cmd/bookstore/bookstore.yaml
//
// Then explore:
//
//	GET    http://localhost:8080/v1/books?include=author,series,stores
//	POST   http://localhost:8080/v1/books  (Content-Type: application/vnd.api+json)
//	GET    http://localhost:8080/v1/books/{id}
//	PATCH  http://localhost:8080/v1/books/{id}
//	DELETE http://localhost:8080/v1/books/{id}
//	GET    http://localhost:8080/v1/books/{id}/author
//	GET    http://localhost:8080/metrics
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bookstore:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "bookstore",
		Short:         "JSON:API bookstore sample server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "bookstore.yaml", "config file")

	root.AddCommand(newServeCommand(&configPath))
	root.AddCommand(newRoutesCommand(&configPath))
	return root
}

func newServeCommand(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger := newLogger(cfg.LogLevel)
			slog.SetDefault(logger)

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			logger.Info("starting server", "addr", cfg.Addr, "base_url", cfg.BaseURL)
			if err := a.router.ListenAndServe(ctx, cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides the config file)")
	return cmd
}

func newRoutesCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the registered routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, slog.New(slog.DiscardHandler))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rt := range a.router.Routes() {
				op := string(rt.Op)
				if op == "" {
					op = "-"
				}
				fmt.Fprintf(out, "%-7s %-8s %s\n", rt.Method, op, rt.Pattern)
			}
			return nil
		},
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
