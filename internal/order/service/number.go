package service

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carecheckout/internal/config"
	"github.com/smallbiznis/carecheckout/internal/order/domain"
)

type snowflakeNumbers struct {
	node *snowflake.Node
	cfg  *config.CheckoutConfigHolder
}

// NewNumberGenerator issues order numbers like ORD-3FJ8K2Q1ZT4. The prefix is
// read from the live checkout config on every call.
func NewNumberGenerator(node *snowflake.Node, cfg *config.CheckoutConfigHolder) domain.NumberGenerator {
	return &snowflakeNumbers{node: node, cfg: cfg}
}

func (g *snowflakeNumbers) Next() string {
	prefix := strings.TrimSpace(g.cfg.Get().OrderNumberPrefix)
	id := strings.ToUpper(g.node.Generate().Base36())
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
