package invite

import (
	"github.com/throwclay/throwclay/internal/invite/repository"
	"github.com/throwclay/throwclay/internal/invite/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invite",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
