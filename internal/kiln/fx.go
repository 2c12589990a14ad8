package kiln

import (
	"github.com/throwclay/throwclay/internal/kiln/repository"
	"github.com/throwclay/throwclay/internal/kiln/service"
	"go.uber.org/fx"
)

var Module = fx.Module("kiln",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
