package class

import (
	"github.com/throwclay/throwclay/internal/class/repository"
	"github.com/throwclay/throwclay/internal/class/service"
	"go.uber.org/fx"
)

var Module = fx.Module("class",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
