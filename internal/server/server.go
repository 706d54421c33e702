package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/scanverify/internal/config"
	"github.com/smallbiznis/scanverify/internal/observability"
	obsmiddleware "github.com/smallbiznis/scanverify/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/scanverify/internal/observability/metrics"
	obstracing "github.com/smallbiznis/scanverify/internal/observability/tracing"
	"github.com/smallbiznis/scanverify/internal/ratelimit"
	"github.com/smallbiznis/scanverify/internal/scan"
	scandomain "github.com/smallbiznis/scanverify/internal/scan/domain"
	"github.com/smallbiznis/scanverify/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	ratelimit.Module,
	scan.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

type scanLimiter interface {
	Enabled() bool
	Allow(ctx context.Context, clientKey string) (*ratelimit.Result, error)
}

func NewEngine(obsCfg observability.Config, cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(CORS(cfg.CORSAllowedOrigins))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, cfg, httpMetrics)
}

func run(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	scanSvc     scandomain.Service
	scanLimiter scanLimiter
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	ScanSvc     scandomain.Service
	ObsMetrics  *obsmetrics.Metrics    `optional:"true"`
	ScanLimiter *ratelimit.ScanLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		scanSvc:    p.ScanSvc,
		obsMetrics: p.ObsMetrics,
	}
	if p.ScanLimiter != nil {
		svc.scanLimiter = p.ScanLimiter
	}

	svc.registerHealthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHealthRoutes() {
	s.engine.GET("/health", s.Health)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Scans --------
	api.POST("/scan", s.ScanRateLimit(), s.RecordScan)
	api.GET("/scans", s.ListRecentScans)

	// -------- Stats --------
	api.GET("/stats", s.GetGlobalStats)
	api.GET("/stats/shifts", s.GetShiftStats)
}

func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := db.Ping(ctx, s.db); err != nil {
		obsmiddleware.FromContext(ctx).Warn("health check failed", zap.Error(err))
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
