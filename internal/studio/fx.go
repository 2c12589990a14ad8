package studio

import (
	"github.com/throwclay/throwclay/internal/studio/repository"
	"github.com/throwclay/throwclay/internal/studio/service"
	"go.uber.org/fx"
)

var Module = fx.Module("studio",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
