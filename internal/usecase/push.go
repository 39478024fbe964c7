package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/omniores3/pythonGroupTools/config"
	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/metrics"
)

// maxStoredResponse caps how much of the remote response body is kept
// in the delivery log.
const maxStoredResponse = 500

// defaultParamMapping is used when a task's API config carries no
// explicit field mapping.
var defaultParamMapping = map[string]string{
	"content":      "content",
	"sender_id":    "sender_id",
	"sender_name":  "sender_name",
	"message_date": "message_date",
	"media_type":   "media_type",
}

// PushService forwards captured messages to an external API target
// with bounded retries, recording every final outcome in the delivery
// log. It implements domain.Pusher.
type PushService struct {
	deliveryRepo domain.DeliveryLogRepository
	cfg          *config.PushConfig
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	client       *fasthttp.Client
}

// NewPushService creates a new push service
func NewPushService(
	deliveryRepo domain.DeliveryLogRepository,
	cfg *config.PushConfig,
	log zerolog.Logger,
	m *metrics.Metrics,
) *PushService {
	return &PushService{
		deliveryRepo: deliveryRepo,
		cfg:          cfg,
		logger:       log.With().Str("component", "push_service").Logger(),
		metrics:      m,
		client: &fasthttp.Client{
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
	}
}

// Push delivers one message to the task's API target. Failed attempts
// are retried after the configured delays; the final outcome is logged
// and reported as a boolean, never as an error, so a dead endpoint
// cannot abort a collection run.
func (s *PushService) Push(ctx context.Context, msg *domain.CollectedMessage, cfg *domain.APIConfig, taskID, messageID uint) bool {
	if cfg == nil || cfg.URL == "" {
		return false
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = fasthttp.MethodPost
	}

	params := s.mapParams(msg, cfg.ParamMapping)
	requestData, _ := json.Marshal(params)

	start := time.Now()
	statusCode, response, err := s.attemptWithRetry(ctx, method, cfg.URL, params)
	duration := time.Since(start).Seconds()

	success := err == nil && statusCode < 400
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	s.metrics.RecordDelivery(outcome, duration)

	if len(response) > maxStoredResponse {
		response = response[:maxStoredResponse]
	}
	if err != nil && response == "" {
		response = err.Error()
		if len(response) > maxStoredResponse {
			response = response[:maxStoredResponse]
		}
	}

	logEntry := &domain.DeliveryLog{
		TaskID:      taskID,
		MessageID:   messageID,
		URL:         cfg.URL,
		Method:      method,
		RequestData: string(requestData),
		StatusCode:  statusCode,
		Response:    response,
		Success:     success,
	}
	if logErr := s.deliveryRepo.Create(ctx, logEntry); logErr != nil {
		s.logger.Error().Err(logErr).Uint("task_id", taskID).Msg("failed to record delivery log")
	}

	if !success {
		s.logger.Warn().
			Uint("task_id", taskID).
			Int("status_code", statusCode).
			Err(err).
			Msg("push delivery failed")
	}

	return success
}

// attemptWithRetry runs up to MaxRetries attempts, sleeping the
// configured delay before each retry, and stops at the first success.
// Any response below 400, redirects included, counts as delivered.
func (s *PushService) attemptWithRetry(ctx context.Context, method, url string, params map[string]string) (int, string, error) {
	statusCode, response, err := s.attempt(method, url, params)
	if err == nil && statusCode < 400 {
		return statusCode, response, nil
	}

	for i := 1; i < s.cfg.MaxRetries; i++ {
		delay := s.cfg.RetryDelays[i-1]
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return statusCode, response, ctx.Err()
		}

		statusCode, response, err = s.attempt(method, url, params)
		if err == nil && statusCode < 400 {
			return statusCode, response, nil
		}
	}

	return statusCode, response, err
}

// attempt performs a single HTTP request
func (s *PushService) attempt(method, url string, params map[string]string) (int, string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)

	if method == fasthttp.MethodGet {
		req.SetRequestURI(url)
		for key, value := range params {
			req.URI().QueryArgs().Set(key, value)
		}
	} else {
		req.SetRequestURI(url)
		req.Header.SetContentType("application/json")
		body, err := json.Marshal(params)
		if err != nil {
			return 0, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		req.SetBody(body)
	}

	if err := s.client.DoTimeout(req, resp, s.cfg.Timeout); err != nil {
		return 0, "", fmt.Errorf("request failed: %w", err)
	}

	return resp.StatusCode(), string(resp.Body()), nil
}

// mapParams projects message fields onto the target's parameter names.
// An explicit mapping overrides defaults field by field; unmapped
// fields keep their default parameter names.
func (s *PushService) mapParams(msg *domain.CollectedMessage, mapping map[string]string) map[string]string {
	merged := make(map[string]string, len(defaultParamMapping)+len(mapping))
	for field, param := range defaultParamMapping {
		merged[field] = param
	}
	for field, param := range mapping {
		merged[field] = param
	}

	fields := map[string]string{
		"content":             msg.Content,
		"sender_id":           fmt.Sprintf("%d", msg.SenderID),
		"sender_name":         msg.SenderName,
		"message_date":        msg.Date.Format(time.RFC3339),
		"media_type":          string(msg.MediaType),
		"telegram_message_id": fmt.Sprintf("%d", msg.TelegramMessageID),
	}

	params := make(map[string]string, len(merged))
	for field, param := range merged {
		if value, ok := fields[field]; ok {
			params[param] = value
		}
	}
	return params
}

// Ensure PushService implements domain.Pusher
var _ domain.Pusher = (*PushService)(nil)
