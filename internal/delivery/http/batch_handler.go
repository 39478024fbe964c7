package http

import (
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/omniores3/pythonGroupTools/internal/usecase"
	"github.com/omniores3/pythonGroupTools/pkg/httputil"
)

// BatchSubmitRequest carries multiline text to relay line by line
type BatchSubmitRequest struct {
	Text      string `json:"text"`
	URL       string `json:"url"`
	Method    string `json:"method,omitempty"`
	ParamName string `json:"param_name,omitempty"`
}

// BatchHandler handles bulk line-by-line submission requests
type BatchHandler struct {
	batch  *usecase.BatchService
	logger zerolog.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batch *usecase.BatchService, logger zerolog.Logger) *BatchHandler {
	return &BatchHandler{
		batch:  batch,
		logger: logger.With().Str("handler", "batch").Logger(),
	}
}

// Submit handles POST /api/batch/submit
func (h *BatchHandler) Submit(ctx *fasthttp.RequestCtx) {
	var req BatchSubmitRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		httputil.WriteErrorResponse(ctx, "invalid request body", fasthttp.StatusBadRequest)
		return
	}

	if req.Text == "" || req.URL == "" {
		httputil.WriteErrorResponse(ctx, "text and url are required", fasthttp.StatusBadRequest)
		return
	}

	report, err := h.batch.Submit(ctx, usecase.BatchSubmit{
		Text:      req.Text,
		URL:       req.URL,
		Method:    req.Method,
		ParamName: req.ParamName,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("batch submission aborted")
		httputil.WriteError(ctx, err, fasthttp.StatusInternalServerError)
		return
	}

	httputil.WriteResponse(ctx, report)
}
