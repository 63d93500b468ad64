package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carecheckout/internal/catalog"
	"github.com/smallbiznis/carecheckout/internal/checkout"
	"github.com/smallbiznis/carecheckout/internal/clock"
	"github.com/smallbiznis/carecheckout/internal/config"
	"github.com/smallbiznis/carecheckout/internal/fee"
	"github.com/smallbiznis/carecheckout/internal/migration"
	"github.com/smallbiznis/carecheckout/internal/observability"
	"github.com/smallbiznis/carecheckout/internal/order"
	"github.com/smallbiznis/carecheckout/internal/patient"
	"github.com/smallbiznis/carecheckout/internal/payment"
	"github.com/smallbiznis/carecheckout/internal/ratelimit"
	"github.com/smallbiznis/carecheckout/internal/server"
	"github.com/smallbiznis/carecheckout/internal/subscription"
	"github.com/smallbiznis/carecheckout/internal/visitfee"
	"github.com/smallbiznis/carecheckout/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		ratelimit.Module,

		catalog.Module,
		patient.Module,
		fee.Module,
		visitfee.Module,
		order.Module,
		payment.Module,
		subscription.Module,
		checkout.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.Platform.NodeID)
}
