package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Karshmistry/CrimAII/internal/auth"
	"github.com/Karshmistry/CrimAII/internal/cases"
	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/matcher"
	"github.com/Karshmistry/CrimAII/internal/metrics"
	"github.com/Karshmistry/CrimAII/internal/notify"
	"github.com/Karshmistry/CrimAII/internal/oracle"
	"github.com/Karshmistry/CrimAII/internal/web"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the CrimAI HTTP API.
The API serves the dashboard: account signup and login, case registration,
recognition of uploaded images, detection logs and admin management.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 5000, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

// resolveServeHostPort applies explicitly set flags over the environment.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.WebConfig) {
	if cmd.Flags().Changed("port") {
		cfg.Port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = mustGetString(cmd, "host")
	}
}

// initSentry enables error reporting when a DSN is configured. The returned
// func flushes buffered events.
func initSentry(cfg *config.SentryConfig) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          "crimai@" + Version,
		SampleRate:       1.0,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	slog.Info("error reporting enabled", "environment", cfg.Environment)
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// tokenManager builds the JWT issuer, falling back to a random secret.
func tokenManager(cfg *config.AuthConfig) (*auth.TokenManager, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		var err error
		if secret, err = auth.RandomSecret(); err != nil {
			return nil, err
		}
		slog.Warn("JWT_SECRET is not set, using a random secret; tokens will not survive a restart")
	}
	return auth.NewTokenManager(secret, cfg.TokenTTL)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	resolveServeHostPort(cmd, &cfg.Web)

	flush, err := initSentry(&cfg.Sentry)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	g, err := openGallery(cfg)
	if err != nil {
		return err
	}

	orc, err := oracle.New(&cfg.Oracle)
	if err != nil {
		return fmt.Errorf("failed to create verification oracle: %w", err)
	}
	if c, ok := orc.(interface{ Close() error }); ok {
		defer c.Close()
	}
	fmt.Printf("Using verification oracle %s\n", orc.Name())

	m := metrics.New()

	notifier, err := notify.FromConfig(&cfg.Notify, m)
	if err != nil {
		return fmt.Errorf("failed to set up notifications: %w", err)
	}
	defer notifier.Close()

	tokens, err := tokenManager(&cfg.Auth)
	if err != nil {
		return err
	}

	opts := []matcher.Option{matcher.WithMetrics(m)}
	if notifier.Len() > 0 {
		fmt.Printf("Detection notifications enabled (%d sinks)\n", notifier.Len())
		opts = append(opts, matcher.WithNotifier(notifier))
	}

	server := web.NewServer(cfg, web.Deps{
		Store:   store,
		Gallery: g,
		Cases:   cases.NewService(g, store, m, nil),
		Matcher: matcher.New(g, orc, store, opts...),
		Tokens:  tokens,
		Metrics: m,
	})

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(server.Start)
	grp.Go(func() error {
		<-gctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	fmt.Printf("Starting CrimAI API on http://%s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := grp.Wait(); err != nil {
		return fmt.Errorf("running server: %w", err)
	}
	return nil
}
