package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/repository/memory"
)

func newDataFixture(t *testing.T) (*DataService, *memory.CollectionStore) {
	t.Helper()
	store := memory.NewCollectionStore()
	svc := NewDataService(store, memory.NewDeliveryLogRepository(), zerolog.Nop())
	return svc, store
}

func seedGroups(t *testing.T, store *memory.CollectionStore) {
	t.Helper()
	ctx := context.Background()
	groups := []domain.Group{
		{TaskID: 1, TelegramID: 100, Title: "Crypto News", Username: "crypto_news"},
		{TaskID: 1, TelegramID: 200, Title: "Local Flea Market", Username: "flea"},
		{TaskID: 2, TelegramID: 300, Title: "Crypto Signals", Username: "signals"},
	}
	for i := range groups {
		if _, err := store.CreateGroup(ctx, &groups[i]); err != nil {
			t.Fatalf("seed group failed: %v", err)
		}
	}
}

func TestSearchSpansGroupsAndMessages(t *testing.T) {
	svc, store := newDataFixture(t)
	ctx := context.Background()
	seedGroups(t, store)

	group, err := store.GetGroupByTelegramID(ctx, 100)
	if err != nil {
		t.Fatalf("GetGroupByTelegramID failed: %v", err)
	}
	msg := &domain.Message{
		GroupID:           group.ID,
		TelegramMessageID: 1,
		Content:           "crypto dipped again",
		MessageDate:       time.Now(),
	}
	if _, err := store.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	result, err := svc.Search(ctx, "crypto", 1, 50)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(result.Groups) != 2 {
		t.Errorf("expected 2 matching groups, got %d", len(result.Groups))
	}
	if len(result.Messages) != 1 {
		t.Errorf("expected 1 matching message, got %d", len(result.Messages))
	}
}

func TestExportGroupsCSV(t *testing.T) {
	svc, store := newDataFixture(t)
	seedGroups(t, store)

	result, err := svc.Export(context.Background(), "groups", "csv")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if result.ContentType != "text/csv" {
		t.Errorf("expected text/csv, got %q", result.ContentType)
	}
	if !strings.HasPrefix(result.Filename, "groups_") || !strings.HasSuffix(result.Filename, ".csv") {
		t.Errorf("unexpected filename %q", result.Filename)
	}

	records, err := csv.NewReader(bytes.NewReader(result.Data)).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d records", len(records))
	}
	if records[0][0] != "id" || records[0][3] != "title" {
		t.Errorf("unexpected header row: %v", records[0])
	}
}

func TestExportMessagesJSON(t *testing.T) {
	svc, store := newDataFixture(t)
	ctx := context.Background()
	seedGroups(t, store)

	group, _ := store.GetGroupByTelegramID(ctx, 100)
	for i := int64(1); i <= 3; i++ {
		msg := &domain.Message{
			GroupID:           group.ID,
			TelegramMessageID: i,
			Content:           "msg",
			MessageDate:       time.Now(),
		}
		if _, err := store.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}

	result, err := svc.Export(ctx, "messages", "json")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if result.ContentType != "application/json" {
		t.Errorf("expected application/json, got %q", result.ContentType)
	}

	var messages []domain.Message
	if err := json.Unmarshal(result.Data, &messages); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(messages) != 3 {
		t.Errorf("expected 3 messages, got %d", len(messages))
	}
}

func TestExportRejectsUnknownTypeAndFormat(t *testing.T) {
	svc, _ := newDataFixture(t)
	ctx := context.Background()

	if _, err := svc.Export(ctx, "accounts", "csv"); err == nil {
		t.Error("expected error for unknown export type")
	}
	if _, err := svc.Export(ctx, "groups", "xml"); err == nil {
		t.Error("expected error for unknown export format")
	}
}

func TestListMessagesDateRange(t *testing.T) {
	svc, store := newDataFixture(t)
	ctx := context.Background()
	seedGroups(t, store)

	group, _ := store.GetGroupByTelegramID(ctx, 100)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := int64(0); i < 5; i++ {
		msg := &domain.Message{
			GroupID:           group.ID,
			TelegramMessageID: i + 1,
			Content:           "dated",
			MessageDate:       base.AddDate(0, 0, int(i)),
		}
		if _, err := store.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}

	start := base.AddDate(0, 0, 1)
	end := base.AddDate(0, 0, 3)
	messages, total, err := svc.ListMessages(ctx, domain.MessageFilter{StartDate: &start, EndDate: &end}, 1, 50)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if total != 3 || len(messages) != 3 {
		t.Errorf("expected 3 messages in range, got total=%d len=%d", total, len(messages))
	}
}
