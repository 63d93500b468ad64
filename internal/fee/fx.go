package fee

import (
	"github.com/smallbiznis/carecheckout/internal/fee/repository"
	"github.com/smallbiznis/carecheckout/internal/fee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fee.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
