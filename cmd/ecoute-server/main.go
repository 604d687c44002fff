package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/bootstrap"
	"github.com/at-ishikawa/ecoute/internal/config"
	"github.com/at-ishikawa/ecoute/internal/sentence"
	"github.com/at-ishikawa/ecoute/internal/server"
)

var configFile string

func main() {
	var debugMode bool
	rootCmd := &cobra.Command{
		Use:           "ecoute-server",
		Short:         "Sentence and attempt API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug mode")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})),
	)
}

func run(ctx context.Context) error {
	app := bootstrap.New()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	sentences, err := sentence.NewCSVRepository(cfg.Data.SentencesPath())
	if err != nil {
		return fmt.Errorf("sentence.NewCSVRepository() > %w", err)
	}
	attempts, err := attempt.NewCSVRepository(cfg.Data.AttemptsPath())
	if err != nil {
		return fmt.Errorf("attempt.NewCSVRepository() > %w", err)
	}

	handler, err := newHTTPHandler(cfg, sentences, attempts)
	if err != nil {
		return fmt.Errorf("newHTTPHandler() > %w", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler,
	}
	app.AddShutdownHook(srv.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Default().Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("base_path", cfg.Server.BasePath),
			slog.String("data_directory", cfg.Data.Directory),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

// newHTTPHandler mounts the API under the configured base path.
func newHTTPHandler(cfg *config.Config, sentences sentence.Repository, attempts attempt.Repository) (http.Handler, error) {
	h, err := server.NewHandler(sentences, attempts,
		server.WithDefaultLanguages(cfg.Defaults.TargetLang, cfg.Defaults.TranslationLang),
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("server.NewHandler() > %w", err)
	}

	var api http.Handler = h
	if basePath := strings.TrimSuffix(cfg.Server.BasePath, "/"); basePath != "" {
		mux := http.NewServeMux()
		mux.Handle(basePath+"/", http.StripPrefix(basePath, h))
		api = mux
	}
	return corsMiddleware(h2c.NewHandler(api, &http2.Server{}), cfg.Server.CORS.AllowedOrigins), nil
}

func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] || allowed["*"] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
