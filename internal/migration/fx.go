package migration

import (
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		if cfg.DefaultStudioID != 0 {
			return seed.EnsureDefaultStudioWithID(conn, cfg.DefaultStudioID, cfg.SeedStudioName)
		}
		if cfg.SeedOwnerEmail != "" {
			return seed.EnsureDefaultStudioAndOwner(conn, cfg.SeedStudioName, cfg.SeedOwnerEmail)
		}
		return nil
	}),
)
