package http

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/usecase"
	"github.com/omniores3/pythonGroupTools/pkg/httputil"
)

// DataHandler handles collected-data query and export HTTP requests
type DataHandler struct {
	data   *usecase.DataService
	logger zerolog.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(data *usecase.DataService, logger zerolog.Logger) *DataHandler {
	return &DataHandler{
		data:   data,
		logger: logger.With().Str("handler", "data").Logger(),
	}
}

// ListGroups handles GET /api/data/groups
func (h *DataHandler) ListGroups(ctx *fasthttp.RequestCtx) {
	page, pageSize := pagination(ctx)

	filter := domain.GroupFilter{
		TaskID:  uint(queryInt(ctx, "task_id", 0)),
		Keyword: string(ctx.QueryArgs().Peek("keyword")),
	}

	groups, total, err := h.data.ListGroups(ctx, filter, page, pageSize)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusInternalServerError)
		return
	}

	httputil.WritePage(ctx, groups, total, page, pageSize)
}

// ListMessages handles GET /api/data/messages
func (h *DataHandler) ListMessages(ctx *fasthttp.RequestCtx) {
	page, pageSize := pagination(ctx)

	filter := domain.MessageFilter{
		GroupID: uint(queryInt(ctx, "group_id", 0)),
		Keyword: string(ctx.QueryArgs().Peek("keyword")),
	}

	var err error
	if filter.StartDate, err = queryTime(ctx, "start_date"); err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}
	if filter.EndDate, err = queryTime(ctx, "end_date"); err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	messages, total, err := h.data.ListMessages(ctx, filter, page, pageSize)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusInternalServerError)
		return
	}

	httputil.WritePage(ctx, messages, total, page, pageSize)
}

// Search handles GET /api/data/search
func (h *DataHandler) Search(ctx *fasthttp.RequestCtx) {
	keyword := string(ctx.QueryArgs().Peek("q"))
	if keyword == "" {
		keyword = string(ctx.QueryArgs().Peek("keyword"))
	}
	if keyword == "" {
		httputil.WriteErrorResponse(ctx, "q is required", fasthttp.StatusBadRequest)
		return
	}

	page, pageSize := pagination(ctx)

	result, err := h.data.Search(ctx, keyword, page, pageSize)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusInternalServerError)
		return
	}

	httputil.WriteResponse(ctx, result)
}

// Export handles GET /api/data/export?type=groups|messages&format=csv|json.
// The export is written as a file download, not the JSON envelope.
func (h *DataHandler) Export(ctx *fasthttp.RequestCtx) {
	dataType := string(ctx.QueryArgs().Peek("type"))
	format := string(ctx.QueryArgs().Peek("format"))
	if format == "" {
		format = "csv"
	}

	result, err := h.data.Export(ctx, dataType, format)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	ctx.SetContentType(result.ContentType)
	ctx.Response.Header.Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", result.Filename))
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(result.Data)
}

// DeliveryLogs handles GET /api/data/tasks/{id}/logs
func (h *DataHandler) DeliveryLogs(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusBadRequest)
		return
	}

	page, pageSize := pagination(ctx)

	logs, total, err := h.data.DeliveryLogs(ctx, id, page, pageSize)
	if err != nil {
		httputil.WriteError(ctx, err, fasthttp.StatusInternalServerError)
		return
	}

	httputil.WritePage(ctx, logs, total, page, pageSize)
}

// queryTime parses an optional RFC3339 query argument
func queryTime(ctx *fasthttp.RequestCtx, key string) (*time.Time, error) {
	raw := string(ctx.QueryArgs().Peek(key))
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected RFC3339 timestamp", key)
	}

	return &t, nil
}
