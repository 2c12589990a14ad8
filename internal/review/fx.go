package review

import (
	"github.com/throwclay/throwclay/internal/review/repository"
	"github.com/throwclay/throwclay/internal/review/service"
	"go.uber.org/fx"
)

var Module = fx.Module("review",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
