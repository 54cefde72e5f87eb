package journal

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginAndComplete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry, err := store.Begin(ctx, "req-1", "sound_add", "adding rain.mp3")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if entry.Status != StatusRunning {
		t.Fatalf("status = %q", entry.Status)
	}
	if entry.RequestID != "req-1" || entry.Operation != "sound_add" {
		t.Fatalf("entry = %+v", entry)
	}

	if err := store.MarkCompleted(ctx, entry.ID, "sound 3 added"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	got, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Detail != "sound 3 added" {
		t.Fatalf("detail = %q", got.Detail)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Fatalf("timestamps: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestMarkFailedKeepsDetail(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry, err := store.Begin(ctx, "req-2", "category_reorder", "moving Music to slot 0")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.MarkFailed(ctx, entry.ID, "category not found"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	got, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %q", got.Status)
	}
	if got.ErrorMessage != "category not found" {
		t.Fatalf("error message = %q", got.ErrorMessage)
	}
	if got.Detail != "moving Music to slot 0" {
		t.Fatalf("detail should survive failure, got %q", got.Detail)
	}
}

func TestFinishMissingEntry(t *testing.T) {
	store := openTestStore(t)
	if err := store.MarkCompleted(context.Background(), 999, "done"); err == nil {
		t.Fatal("expected error for unknown entry")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, op := range []string{"sound_add", "sound_remove", "sound_update"} {
		if _, err := store.Begin(ctx, "req", op, ""); err != nil {
			t.Fatalf("Begin %s: %v", op, err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d", len(entries))
	}
	if entries[0].Operation != "sound_update" || entries[1].Operation != "sound_remove" {
		t.Fatalf("order = %q, %q", entries[0].Operation, entries[1].Operation)
	}
}

func TestStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a, _ := store.Begin(ctx, "req", "sound_add", "")
	b, _ := store.Begin(ctx, "req", "sound_remove", "")
	if _, err := store.Begin(ctx, "req", "sound_move", ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.MarkCompleted(ctx, a.ID, "ok"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := store.MarkFailed(ctx, b.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[StatusCompleted] != 1 || stats[StatusFailed] != 1 || stats[StatusRunning] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}
