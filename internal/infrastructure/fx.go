package infrastructure

import (
	"go.uber.org/fx"

	"github.com/omniores3/pythonGroupTools/internal/infrastructure/database"
	httpfx "github.com/omniores3/pythonGroupTools/internal/infrastructure/http"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/kafka"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/logger"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/metrics"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/telegram"
)

// Module aggregates all infrastructure modules
var Module = fx.Module("infrastructure",
	logger.Module,
	database.Module,
	metrics.Module,
	telegram.Module,
	kafka.Module,
	httpfx.Module,
)
