package memory

import (
	"context"
	"testing"
	"time"

	"github.com/omniores3/pythonGroupTools/internal/domain"
)

func TestCreateGroupIdempotent(t *testing.T) {
	store := NewCollectionStore()
	ctx := context.Background()

	first := &domain.Group{TaskID: 1, TelegramID: 100, Title: "Original"}
	created, err := store.CreateGroup(ctx, first)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if !created || first.ID == 0 {
		t.Fatalf("expected fresh insert with assigned ID, got created=%v id=%d", created, first.ID)
	}

	// conflicting insert loads the existing row instead
	second := &domain.Group{TaskID: 2, TelegramID: 100, Title: "Duplicate"}
	created, err = store.CreateGroup(ctx, second)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if created {
		t.Error("conflicting insert reported created=true")
	}
	if second.ID != first.ID || second.Title != "Original" {
		t.Errorf("existing row not loaded on conflict: %+v", second)
	}
}

func TestCreateMessageIdempotent(t *testing.T) {
	store := NewCollectionStore()
	ctx := context.Background()

	group := &domain.Group{TaskID: 1, TelegramID: 100}
	if _, err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	msg := &domain.Message{GroupID: group.ID, TelegramMessageID: 5, Content: "first", MessageDate: time.Now()}
	created, err := store.CreateMessage(ctx, msg)
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if !created {
		t.Fatal("expected fresh insert")
	}

	dup := &domain.Message{GroupID: group.ID, TelegramMessageID: 5, Content: "second", MessageDate: time.Now()}
	created, err = store.CreateMessage(ctx, dup)
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if created {
		t.Error("duplicate natural key reported created=true")
	}
	if dup.ID != msg.ID || dup.Content != "first" {
		t.Errorf("existing row not loaded on conflict: %+v", dup)
	}

	// same message ID in another group is a distinct row
	other := &domain.Group{TaskID: 1, TelegramID: 200}
	if _, err := store.CreateGroup(ctx, other); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	third := &domain.Message{GroupID: other.ID, TelegramMessageID: 5, Content: "elsewhere", MessageDate: time.Now()}
	created, err = store.CreateMessage(ctx, third)
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if !created {
		t.Error("message with same telegram ID in another group must be inserted")
	}
}

func TestListMessagesJoinsGroupFields(t *testing.T) {
	store := NewCollectionStore()
	ctx := context.Background()

	group := &domain.Group{TaskID: 1, TelegramID: 100, Title: "News", Username: "news_chan"}
	if _, err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	msg := &domain.Message{GroupID: group.ID, TelegramMessageID: 1, Content: "hi", MessageDate: time.Now()}
	if _, err := store.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	messages, _, err := store.ListMessages(ctx, domain.MessageFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].GroupTitle != "News" || messages[0].GroupUsername != "news_chan" {
		t.Errorf("group fields not joined: %+v", messages[0])
	}
}
