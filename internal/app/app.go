package app

import (
	"go.uber.org/fx"

	"github.com/omniores3/pythonGroupTools/config"
	deliveryhttp "github.com/omniores3/pythonGroupTools/internal/delivery/http"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure"
	"github.com/omniores3/pythonGroupTools/internal/repository/postgres"
	"github.com/omniores3/pythonGroupTools/internal/usecase"
)

// CreateApp creates the fx application options
func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(config.Out),
		infrastructure.Module,
		postgres.Module,
		usecase.Module,
		deliveryhttp.Module,
	)
}
