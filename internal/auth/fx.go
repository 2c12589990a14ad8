package auth

import (
	"github.com/throwclay/throwclay/internal/auth/repository"
	"github.com/throwclay/throwclay/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
