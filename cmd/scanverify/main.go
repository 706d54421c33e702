package main

import (
	"github.com/smallbiznis/scanverify/internal/clock"
	"github.com/smallbiznis/scanverify/internal/config"
	"github.com/smallbiznis/scanverify/internal/migration"
	"github.com/smallbiznis/scanverify/internal/observability"
	"github.com/smallbiznis/scanverify/internal/server"
	"github.com/smallbiznis/scanverify/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface, scan service and rate limiter
		server.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}
