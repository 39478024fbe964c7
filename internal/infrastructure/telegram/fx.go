package telegram

import (
	"go.uber.org/fx"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// Module provides Telegram infrastructure for fx DI
var Module = fx.Module("telegram",
	fx.Provide(
		NewRegistry,
		func(r *Registry) domain.SessionRegistry { return r },
	),
)
