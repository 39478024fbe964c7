package http

import (
	"fmt"
	"strconv"

	"github.com/valyala/fasthttp"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// pathID extracts a numeric {id} path segment
func pathID(ctx *fasthttp.RequestCtx) (uint, error) {
	raw, ok := ctx.UserValue("id").(string)
	if !ok || raw == "" {
		return 0, fmt.Errorf("id is required")
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %s", raw)
	}

	return uint(id), nil
}

// pagination reads page/page_size query args with sane bounds
func pagination(ctx *fasthttp.RequestCtx) (page, pageSize int) {
	page = queryInt(ctx, "page", 1)
	if page < 1 {
		page = 1
	}

	pageSize = queryInt(ctx, "page_size", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}

func queryInt(ctx *fasthttp.RequestCtx, key string, def int) int {
	raw := string(ctx.QueryArgs().Peek(key))
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}

	return v
}
