package providers

import (
	"github.com/throwclay/throwclay/internal/providers/email"
	"github.com/throwclay/throwclay/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
