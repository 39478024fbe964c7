package http

import (
	"go.uber.org/fx"

	"github.com/omniores3/pythonGroupTools/internal/infrastructure/http/server"
)

// Module provides HTTP handlers and wires routes onto the server
var Module = fx.Module("delivery_http",
	fx.Provide(
		NewAccountHandler,
		NewTaskHandler,
		NewDataHandler,
		NewBatchHandler,
		NewHealthHandler,
		NewRouter,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(srv *server.Server, r *Router) {
	r.RegisterRoutes(srv.Router)
}
