package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/throwclay/throwclay/internal/clock"
	"github.com/throwclay/throwclay/internal/config"
	"github.com/throwclay/throwclay/internal/migration"
	"github.com/throwclay/throwclay/internal/observability"
	"github.com/throwclay/throwclay/internal/server"
	"github.com/throwclay/throwclay/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNodeID)
}
