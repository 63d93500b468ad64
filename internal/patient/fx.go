package patient

import (
	"github.com/smallbiznis/carecheckout/internal/patient/repository"
	"github.com/smallbiznis/carecheckout/internal/patient/service"
	"go.uber.org/fx"
)

var Module = fx.Module("patient.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
