package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lunagrove/landingforge/internal/generation/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func testRecord(id string, ownerID int64, createdAt time.Time) storage.SessionRecord {
	return storage.SessionRecord{
		ID:          id,
		OwnerID:     ownerID,
		State:       "COMPLETE",
		Progress:    100,
		Mechanic:    "wheel",
		Theme:       "pirate treasure",
		Language:    "en",
		ArchivePath: "/data/landings/1/" + id + "/" + id + ".zip",
		PreviewPath: "/data/landings/1/" + id + "/preview.png",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt.Add(time.Minute),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	want := testRecord("session-a", 1, createdAt)
	if err := store.PutSession(ctx, want); err != nil {
		t.Fatalf("PutSession error = %v", err)
	}

	got, err := store.GetSession(ctx, "session-a")
	if err != nil {
		t.Fatalf("GetSession error = %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("timestamps = (%s, %s), want (%s, %s)", got.CreatedAt, got.UpdatedAt, want.CreatedAt, want.UpdatedAt)
	}
	got.CreatedAt = want.CreatedAt
	got.UpdatedAt = want.UpdatedAt
	if got != want {
		t.Fatalf("GetSession = %+v, want %+v", got, want)
	}
}

func TestPutSessionUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	record := testRecord("session-a", 1, createdAt)
	record.State = "ASSEMBLING"
	record.Progress = 90
	if err := store.PutSession(ctx, record); err != nil {
		t.Fatalf("initial put: %v", err)
	}

	record.State = "COMPLETE"
	record.Progress = 100
	record.UpdatedAt = createdAt.Add(2 * time.Minute)
	if err := store.PutSession(ctx, record); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetSession(ctx, "session-a")
	if err != nil {
		t.Fatalf("GetSession error = %v", err)
	}
	if got.State != "COMPLETE" || got.Progress != 100 {
		t.Fatalf("after upsert: state=%s progress=%d", got.State, got.Progress)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Fatalf("CreatedAt changed on upsert: %s", got.CreatedAt)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSession(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetSession error = %v, want ErrNotFound", err)
	}
}

func TestPutSessionRequiresID(t *testing.T) {
	store := openTestStore(t)
	if err := store.PutSession(context.Background(), storage.SessionRecord{}); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestListSessionsByOwnerNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"session-a", "session-b", "session-c"} {
		record := testRecord(id, 1, base.Add(time.Duration(i)*time.Hour))
		if err := store.PutSession(ctx, record); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	other := testRecord("session-x", 2, base)
	if err := store.PutSession(ctx, other); err != nil {
		t.Fatalf("put other owner: %v", err)
	}

	records, err := store.ListSessionsByOwner(ctx, 1, 0)
	if err != nil {
		t.Fatalf("ListSessionsByOwner error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3", len(records))
	}
	if records[0].ID != "session-c" || records[2].ID != "session-a" {
		t.Fatalf("order = [%s %s %s], want newest first", records[0].ID, records[1].ID, records[2].ID)
	}

	limited, err := store.ListSessionsByOwner(ctx, 1, 2)
	if err != nil {
		t.Fatalf("limited list error = %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited len = %d, want 2", len(limited))
	}
}
