package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rendermodes/internal/app"
	"rendermodes/internal/config"
	"rendermodes/internal/logger"
	"rendermodes/internal/news"
	"rendermodes/internal/render"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logger.InitLogger(cfg.Env, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()
		if cfg.Production() {
			gin.SetMode(gin.ReleaseMode)
		}

		srv, err := newServer(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := srv.Run(ctx); err != nil {
			log.Error("server exited with error", zap.Error(err))
			return err
		}
		return nil
	},
}

func newServer(cfg *config.Config, log *zap.Logger) (*app.Server, error) {
	seed := cfg.Articles.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	store := news.NewStore(news.Generate(cfg.Articles.Count, news.GenerateOptions{Seed: seed}))
	log.Info("dataset generated", zap.Int("articles", store.Len()), zap.Int64("seed", seed))
	return app.NewServer(appConfig(cfg), store, log)
}

func appConfig(cfg *config.Config) *app.Config {
	return &app.Config{
		Addr:           cfg.Addr,
		APIListDelay:   cfg.Delays.APIList.Duration,
		APIDetailDelay: cfg.Delays.APIDetail.Duration,
		APILimit:       cfg.Limits.List,
		Modes: render.ModeConfig{
			SSRDelay:   cfg.Delays.SSR.Duration,
			MixedDelay: cfg.Delays.Mixed.Duration,
			ISRTTL:     cfg.ISR.TTL.Duration,
			ListLimit:  cfg.Limits.List,
			MixedLimit: cfg.Limits.Mixed,
		},
		RevalidateTimeout: cfg.ISR.RevalidateTimeout.Duration,
		FeedTTL:           cfg.ISR.TTL.Duration,
		FeedLimit:         cfg.Limits.Feed,
		SweepInterval:     cfg.SweepInterval.Duration,
		ShutdownTimeout:   cfg.ShutdownTimeout.Duration,
	}
}
