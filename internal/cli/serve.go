package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diskwarden/internal/config"
	"diskwarden/internal/middleware"
	"diskwarden/internal/routes"
	"diskwarden/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(load loader) *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	return c
}

// initServices wires the shared services from the configuration
func initServices(cfg *config.Config) error {
	if _, err := services.InitFilesystemDiscoverer(nil, cfg.DiscoveryCommand, cfg.DiscoveryTimeout); err != nil {
		return err
	}
	if _, err := services.InitAuthService(cfg.AuthSecret, cfg.TokenExpiry); err != nil {
		return err
	}
	services.SetCacheTTL(cfg.CacheTTL)
	services.SetHistoryMaxPoints(cfg.HistoryPoints)
	services.SetSettingsStore(cfg.Settings())
	return nil
}

func newEngine(cfg *config.Config, logger logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger),
		middleware.SecurityHeadersMiddleware(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.IPAllowlistMiddleware(middleware.NewIPAllowlist(cfg.AllowedIPs)),
		middleware.RateLimitMiddleware(middleware.NewRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)),
	)

	routes.RegisterFilesystemRoutes(r)
	routes.RegisterWebSocketRoutes(r)
	return r
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := initServices(cfg); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	services.StartFilesystemCollector(ctx, cfg.CollectInterval)
	defer services.StopFilesystemCollector()
	services.InitWebSocketHub(ctx, cfg.CollectInterval)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           newEngine(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Infof("Listening on %s (discovery: %q)", cfg.Address, services.GetFilesystemDiscoverer().Command())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
