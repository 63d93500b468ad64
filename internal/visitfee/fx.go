package visitfee

import (
	"github.com/smallbiznis/carecheckout/internal/visitfee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("visitfee.service",
	fx.Provide(service.NewService),
)
