package migration

import (
	"fmt"

	scandomain "github.com/smallbiznis/scanverify/internal/scan/domain"
	"github.com/smallbiznis/scanverify/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg db.Config, log *zap.Logger) error {
		if err := Migrate(conn, cfg.Type); err != nil {
			return err
		}
		log.Info("schema ready", zap.String("dialect", cfg.Type))
		return nil
	}),
)

// Migrate brings the scans schema up to date for the given dialect.
func Migrate(conn *gorm.DB, dialect string) error {
	if dialect == db.TypeSQLite {
		if err := conn.AutoMigrate(&scandomain.Scan{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB, dialect)
}
