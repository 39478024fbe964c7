package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the collector service
type Metrics struct {
	// Task lifecycle metrics
	TasksStarted   *prometheus.CounterVec
	TasksFinished  *prometheus.CounterVec
	RunningTasks   prometheus.Gauge
	TaskDuration   prometheus.Histogram

	// Collection metrics
	GroupsDiscovered  prometheus.Counter
	MessagesCollected prometheus.Counter
	MessagesFiltered  prometheus.Counter
	ActiveListeners   prometheus.Gauge

	// Session metrics
	ActiveSessions  prometheus.Gauge
	AuthErrors      *prometheus.CounterVec
	FloodWaits      prometheus.Counter

	// Delivery metrics
	DeliveryAttempts *prometheus.CounterVec
	DeliveryDuration prometheus.Histogram

	// Kafka metrics
	KafkaMessagesProduced prometheus.Counter
	KafkaProduceErrors    *prometheus.CounterVec
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

func init() {
	GetDefaultMetrics()
}

// NewMetrics creates a new Metrics instance with all counters and gauges
func NewMetrics() *Metrics {
	return &Metrics{
		TasksStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_tasks_started_total",
				Help: "Total number of collection tasks started",
			},
			[]string{"task_type"},
		),
		TasksFinished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_tasks_finished_total",
				Help: "Total number of collection tasks finished by terminal status",
			},
			[]string{"task_type", "status"},
		),
		RunningTasks: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "collector_running_tasks",
			Help: "Current number of running collection tasks",
		}),
		TaskDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "collector_task_duration_seconds",
			Help:    "Duration of collection task runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),

		GroupsDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_groups_discovered_total",
			Help: "Total number of groups discovered and stored",
		}),
		MessagesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_messages_collected_total",
			Help: "Total number of messages stored",
		}),
		MessagesFiltered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_messages_filtered_total",
			Help: "Total number of messages rejected by content filters",
		}),
		ActiveListeners: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "collector_active_listeners",
			Help: "Current number of registered live message listeners",
		}),

		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "collector_active_sessions",
			Help: "Current number of connected Telegram sessions",
		}),
		AuthErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_auth_errors_total",
				Help: "Total number of Telegram authentication errors",
			},
			[]string{"error_type"},
		),
		FloodWaits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_flood_waits_total",
			Help: "Total number of rate limit events from Telegram API",
		}),

		DeliveryAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_delivery_attempts_total",
				Help: "Total number of push delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
		DeliveryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "collector_delivery_duration_seconds",
			Help:    "Duration of push delivery requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		KafkaMessagesProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_kafka_messages_produced_total",
			Help: "Total number of messages produced to Kafka",
		}),
		KafkaProduceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_kafka_produce_errors_total",
				Help: "Total number of Kafka produce errors",
			},
			[]string{"error_type"},
		),
	}
}

// RecordTaskStarted records a task moving to the running state
func (m *Metrics) RecordTaskStarted(taskType string) {
	m.TasksStarted.WithLabelValues(taskType).Inc()
	m.RunningTasks.Inc()
}

// RecordTaskFinished records a task reaching a terminal status
func (m *Metrics) RecordTaskFinished(taskType, status string, duration float64) {
	m.TasksFinished.WithLabelValues(taskType, status).Inc()
	m.RunningTasks.Dec()
	m.TaskDuration.Observe(duration)
}

// RecordGroupDiscovered records a newly stored group
func (m *Metrics) RecordGroupDiscovered() {
	m.GroupsDiscovered.Inc()
}

// RecordMessageCollected records a newly stored message
func (m *Metrics) RecordMessageCollected() {
	m.MessagesCollected.Inc()
}

// RecordMessageFiltered records a message rejected by a content filter
func (m *Metrics) RecordMessageFiltered() {
	m.MessagesFiltered.Inc()
}

// UpdateActiveListeners updates the live listener gauge
func (m *Metrics) UpdateActiveListeners(count int) {
	m.ActiveListeners.Set(float64(count))
}

// UpdateActiveSessions updates the connected session gauge
func (m *Metrics) UpdateActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordAuthError records an authentication error with error type
func (m *Metrics) RecordAuthError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.AuthErrors.WithLabelValues(errorType).Inc()
}

// RecordFloodWait records a rate limit event from Telegram API
func (m *Metrics) RecordFloodWait() {
	m.FloodWaits.Inc()
}

// RecordDelivery records a push delivery attempt with its outcome
func (m *Metrics) RecordDelivery(outcome string, duration float64) {
	m.DeliveryAttempts.WithLabelValues(outcome).Inc()
	m.DeliveryDuration.Observe(duration)
}

// RecordKafkaMessage records a Kafka message production
func (m *Metrics) RecordKafkaMessage() {
	m.KafkaMessagesProduced.Inc()
}

// RecordKafkaError records a Kafka production error with error type
func (m *Metrics) RecordKafkaError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.KafkaProduceErrors.WithLabelValues(errorType).Inc()
}
