package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rendermodes/internal/freshness"
	"rendermodes/internal/news"
	"rendermodes/internal/render"
)

// Config holds runtime settings for the server.
type Config struct {
	Addr           string
	APIListDelay   time.Duration
	APIDetailDelay time.Duration
	APILimit       int
	Modes          render.ModeConfig

	RevalidateTimeout time.Duration
	FeedTTL           time.Duration
	FeedLimit         int
	// SweepInterval is both the sweep period and the idle time after which
	// unread entries are dropped. Zero disables sweeping.
	SweepInterval   time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:              ":3000",
		APIListDelay:      800 * time.Millisecond,
		APIDetailDelay:    600 * time.Millisecond,
		APILimit:          10,
		Modes:             render.DefaultModeConfig(),
		RevalidateTimeout: 30 * time.Second,
		FeedTTL:           60 * time.Second,
		FeedLimit:         20,
		SweepInterval:     10 * time.Minute,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Server is the application server.
type Server struct {
	cfg *Config
	log *zap.Logger

	store     *news.Store
	apiList   news.Source
	apiDetail news.Source

	engine   *freshness.Engine
	registry *render.Registry
	renderer *render.Renderer
	feeds    *FeedHandler

	router  *gin.Engine
	started time.Time
}

// NewServer wires every pipeline over store.
func NewServer(cfg *Config, store *news.Store, log *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	renderer, err := render.NewRenderer(nil)
	if err != nil {
		return nil, err
	}

	engine := freshness.NewEngine(
		freshness.WithLogger(log.Named("freshness")),
		freshness.WithRevalidateTimeout(cfg.RevalidateTimeout),
	)
	repo := news.NewRepository(store, 0)

	s := &Server{
		cfg:       cfg,
		log:       log,
		store:     store,
		apiList:   repo.WithDelay(cfg.APIListDelay),
		apiDetail: repo.WithDelay(cfg.APIDetailDelay),
		engine:    engine,
		registry:  render.NewDefaultRegistry(engine, repo, cfg.Modes, log.Named("render")),
		renderer:  renderer,
		feeds:     NewFeedHandler(engine, repo, cfg.FeedTTL, cfg.FeedLimit, log.Named("feed")),
		started:   time.Now(),
	}
	s.router = s.newRouter()
	return s, nil
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Engine returns the freshness engine behind every page.
func (s *Server) Engine() *freshness.Engine { return s.engine }

// Registry returns the rendering pipelines.
func (s *Server) Registry() *render.Registry { return s.registry }

// Renderer returns the page templates.
func (s *Server) Renderer() *render.Renderer { return s.renderer }

// Run serves until ctx is done, then shuts down gracefully and waits for
// background revalidations to finish.
func (s *Server) Run(ctx context.Context) error {
	if err := s.registry.Warm(ctx); err != nil {
		s.log.Warn("static warm-up failed, pages will build on first request", zap.Error(err))
	}

	h := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go s.sweepLoop(loopCtx)

	errc := make(chan error, 1)
	go func() {
		s.log.Info("Server listening", zap.String("addr", s.cfg.Addr))
		errc <- h.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := h.Shutdown(shutdownCtx)
	s.engine.Wait()
	return err
}

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), requestID(), s.accessLog(), commonHeaders())
	r.SetHTMLTemplate(s.renderer.Template())

	r.GET("/", s.handleHome)
	r.GET("/health", s.handleHealth)

	r.GET("/news", s.handleNewsList)
	r.GET("/news/:id", s.handleNewsDetail)

	r.GET("/render/:mode", s.handleRenderList)
	r.GET("/render/:mode/:id", s.handleRenderDetail)
	r.POST("/revalidate/:mode", s.handleRevalidate)

	r.GET("/feed.xml", s.feeds.ServeRSS)
	r.GET("/feed.atom", s.feeds.ServeAtom)
	r.GET("/feed.json", s.feeds.ServeJSON)

	r.NoRoute(func(c *gin.Context) {
		s.renderError(c, http.StatusNotFound, "Page not found")
	})
	return r
}

// handleHealth returns JSON health information.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "rendermodes",
		"articles":  s.store.Len(),
		"entries":   s.engine.Stats(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// sweepLoop periodically drops entries nobody has read for a while.
func (s *Server) sweepLoop(ctx context.Context) {
	if s.cfg.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.engine.Sweep(s.cfg.SweepInterval)
		case <-ctx.Done():
			return
		}
	}
}
