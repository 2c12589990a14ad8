package messaging

import (
	"github.com/throwclay/throwclay/internal/messaging/repository"
	"github.com/throwclay/throwclay/internal/messaging/service"
	"go.uber.org/fx"
)

var Module = fx.Module("messaging",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
