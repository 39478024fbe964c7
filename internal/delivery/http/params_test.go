package http

import (
	"testing"

	"github.com/valyala/fasthttp"
)

func TestPathID(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    uint
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"zero", "0", 0, false},
		{"not numeric", "abc", 0, true},
		{"negative", "-1", 0, true},
		{"missing", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &fasthttp.RequestCtx{}
			if tt.value != nil {
				ctx.SetUserValue("id", tt.value)
			}

			got, err := pathID(ctx)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got id=%d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("pathID failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("pathID = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"defaults", "", 1, defaultPageSize},
		{"explicit", "page=3&page_size=10", 3, 10},
		{"zero page clamped", "page=0", 1, defaultPageSize},
		{"negative page clamped", "page=-5", 1, defaultPageSize},
		{"oversized page size capped", "page_size=100000", 1, maxPageSize},
		{"garbage ignored", "page=x&page_size=y", 1, defaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &fasthttp.RequestCtx{}
			ctx.Request.SetRequestURI("/api/tasks?" + tt.query)

			page, pageSize := pagination(ctx)
			if page != tt.wantPage || pageSize != tt.wantPageSize {
				t.Errorf("pagination = (%d, %d), want (%d, %d)",
					page, pageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}
