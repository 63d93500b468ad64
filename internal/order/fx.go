package order

import (
	"github.com/smallbiznis/carecheckout/internal/order/repository"
	"github.com/smallbiznis/carecheckout/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewNumberGenerator),
	fx.Provide(service.NewService),
)
