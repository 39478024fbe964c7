package http

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/telegram"
	"github.com/omniores3/pythonGroupTools/pkg/httputil"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the JSON response for health check
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentHealth `json:"components"`
}

// HealthHandler handles HTTP health check requests
type HealthHandler struct {
	db        *gorm.DB
	sessions  *telegram.Registry
	publisher domain.EventPublisher
	logger    zerolog.Logger
}

// HealthHandlerParams defines parameters for HealthHandler with optional dependencies
type HealthHandlerParams struct {
	fx.In

	DB        *gorm.DB
	Sessions  *telegram.Registry
	Publisher domain.EventPublisher `optional:"true"`
	Logger    zerolog.Logger
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(params HealthHandlerParams) *HealthHandler {
	return &HealthHandler{
		db:        params.DB,
		sessions:  params.Sessions,
		publisher: params.Publisher,
		logger:    params.Logger,
	}
}

// Handle handles the health check request
func (h *HealthHandler) Handle(ctx *fasthttp.RequestCtx) {
	checkCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	components := h.checkComponents(checkCtx)
	status := h.determineOverallStatus(components)

	response := HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Components: components,
	}

	logEvent := h.logger.Debug()
	if status == HealthStatusUnhealthy {
		logEvent = h.logger.Warn()
	} else if status == HealthStatusDegraded {
		logEvent = h.logger.Info()
	}
	logEvent.
		Str("status", string(status)).
		Interface("components", components).
		Msg("Health check completed")

	httputil.WriteHealthResponse(ctx, response, status != HealthStatusUnhealthy)
}

func (h *HealthHandler) checkComponents(ctx context.Context) []ComponentHealth {
	components := make([]ComponentHealth, 0, 3)

	// Database
	dbHealthy := false
	dbMsg := ""
	sqlDB, err := h.db.DB()
	if err != nil {
		dbMsg = "database handle unavailable"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbMsg = "database ping failed"
	} else {
		dbHealthy = true
	}
	components = append(components, ComponentHealth{
		Name:    "database",
		Healthy: dbHealthy,
		Message: dbMsg,
	})

	// Telegram sessions
	active := h.sessions.ActiveSessions()
	sessionsHealthy := active > 0
	sessionsMsg := ""
	if !sessionsHealthy {
		sessionsMsg = "no connected Telegram sessions"
	}
	components = append(components, ComponentHealth{
		Name:    "telegram_sessions",
		Healthy: sessionsHealthy,
		Message: sessionsMsg,
	})

	// Kafka producer (optional)
	kafkaMsg := ""
	if h.publisher == nil {
		kafkaMsg = "disabled"
	}
	components = append(components, ComponentHealth{
		Name:    "kafka_producer",
		Healthy: true,
		Message: kafkaMsg,
	})

	return components
}

// determineOverallStatus derives the overall status from component results.
// A dead database is unhealthy, anything else only degrades the service:
// sessions come and go as accounts log in and out.
func (h *HealthHandler) determineOverallStatus(components []ComponentHealth) HealthStatus {
	status := HealthStatusHealthy
	for _, c := range components {
		if c.Healthy {
			continue
		}
		if c.Name == "database" {
			return HealthStatusUnhealthy
		}
		status = HealthStatusDegraded
	}
	return status
}
