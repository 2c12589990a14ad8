package audit

import (
	"github.com/throwclay/throwclay/internal/audit/repository"
	"github.com/throwclay/throwclay/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
