package http

import (
	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
)

// Router registers all collector HTTP routes
type Router struct {
	accounts *AccountHandler
	tasks    *TaskHandler
	data     *DataHandler
	batch    *BatchHandler
	health   *HealthHandler
	logger   zerolog.Logger
}

// NewRouter creates a new router over all handlers
func NewRouter(
	accounts *AccountHandler,
	tasks *TaskHandler,
	data *DataHandler,
	batch *BatchHandler,
	health *HealthHandler,
	logger zerolog.Logger,
) *Router {
	return &Router{
		accounts: accounts,
		tasks:    tasks,
		data:     data,
		batch:    batch,
		health:   health,
		logger:   logger,
	}
}

// RegisterRoutes registers all routes on the fasthttp router
func (r *Router) RegisterRoutes(rt *router.Router) {
	// Accounts and authentication
	rt.POST("/api/auth/accounts", r.accounts.StartLogin)
	rt.GET("/api/auth/accounts", r.accounts.List)
	rt.POST("/api/auth/accounts/{id}/verify", r.accounts.Verify)
	rt.POST("/api/auth/accounts/{id}/activate", r.accounts.Activate)
	rt.DELETE("/api/auth/accounts/{id}", r.accounts.Delete)

	// Tasks
	rt.GET("/api/tasks", r.tasks.List)
	rt.POST("/api/tasks", r.tasks.Create)
	rt.GET("/api/tasks/{id}", r.tasks.Get)
	rt.PUT("/api/tasks/{id}", r.tasks.Update)
	rt.DELETE("/api/tasks/{id}", r.tasks.Delete)
	rt.POST("/api/tasks/{id}/start", r.tasks.Start)
	rt.POST("/api/tasks/{id}/stop", r.tasks.Stop)
	rt.GET("/api/tasks/{id}/status", r.tasks.Status)

	// Collected data
	rt.GET("/api/data/groups", r.data.ListGroups)
	rt.GET("/api/data/messages", r.data.ListMessages)
	rt.GET("/api/data/search", r.data.Search)
	rt.GET("/api/data/export", r.data.Export)
	rt.GET("/api/data/tasks/{id}/logs", r.data.DeliveryLogs)

	// Batch utility
	rt.POST("/api/batch/submit", r.batch.Submit)

	// Health
	rt.GET("/health", r.health.Handle)

	r.logger.Info().Msg("HTTP routes registered")
}
