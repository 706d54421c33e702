package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	obslogger "github.com/smallbiznis/scanverify/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprom "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(FromAppConfig),
	fx.Provide(Open),
)

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg Config
	Log *zap.Logger
}

// Open builds the process-wide connection pool. A store that cannot be
// reached here aborts startup; later outages surface per call.
func Open(p Params) (*gorm.DB, error) {
	dialector, err := Dialect(p.Cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         obslogger.NewGormLogger(obslogger.DefaultGormLoggerConfig()),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.Cfg.Type, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	ApplyPool(sqlDB, p.Cfg)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := conn.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(p.Cfg.Name),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return nil, fmt.Errorf("register otelgorm: %w", err)
	}

	if err := conn.Use(gormprom.New(gormprom.Config{
		DBName:          p.Cfg.Name,
		RefreshInterval: 15,
		Labels:          map[string]string{"db_type": p.Cfg.Type},
	})); err != nil {
		return nil, fmt.Errorf("register gorm prometheus: %w", err)
	}

	log := p.Log.Named("db")
	log.Info("database connected",
		zap.String("type", p.Cfg.Type),
		zap.String("host", p.Cfg.Host),
		zap.String("name", p.Cfg.Name),
		zap.Int("max_open_conn", p.Cfg.MaxOpenConn),
	)

	p.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing database pool")
			return sqlDB.Close()
		},
	})

	return conn, nil
}

// ApplyPool bounds the pool. Five connections when unset.
func ApplyPool(sqlDB *sql.DB, cfg Config) {
	maxOpen := cfg.MaxOpenConn
	if maxOpen <= 0 {
		maxOpen = 5
	}
	maxIdle := cfg.MaxIdleConn
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = maxOpen
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}
}

// Ping checks that a connection can be borrowed from the pool.
func Ping(ctx context.Context, conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
