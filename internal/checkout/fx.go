package checkout

import (
	"github.com/smallbiznis/carecheckout/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(service.NewService),
	fx.Provide(service.NewReconciler),
)
