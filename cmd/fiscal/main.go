package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/quadrasoft/fiscal/internal/clock"
	"github.com/quadrasoft/fiscal/internal/config"
	"github.com/quadrasoft/fiscal/internal/emission"
	"github.com/quadrasoft/fiscal/internal/logger"
	"github.com/quadrasoft/fiscal/internal/observability/metrics"
	"github.com/quadrasoft/fiscal/internal/order"
	"github.com/quadrasoft/fiscal/internal/server"
	"github.com/quadrasoft/fiscal/internal/tax"
	"github.com/quadrasoft/fiscal/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,

		// Functional domains
		order.Module,
		tax.Module,
		emission.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
