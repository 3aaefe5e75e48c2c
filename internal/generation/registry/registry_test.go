package registry

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestRegistry(retention time.Duration) *Registry {
	counter := 0
	return New(retention, time.Minute, WithIDGenerator(func() (string, error) {
		counter++
		return fmt.Sprintf("session-%d", counter), nil
	}))
}

func TestCreateAndGet(t *testing.T) {
	reg := newTestRegistry(time.Hour)

	session, err := reg.Create(42)
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	if session.OwnerID() != 42 {
		t.Fatalf("OwnerID = %d, want 42", session.OwnerID())
	}

	got, err := reg.Get(session.ID())
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if got != session {
		t.Fatal("Get returned a different session instance")
	}
}

func TestGetUnknown(t *testing.T) {
	reg := newTestRegistry(time.Hour)

	_, err := reg.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestCreateRejectsInvalidOwner(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	if _, err := reg.Create(0); err == nil {
		t.Fatal("expected error for non-positive owner id")
	}
}

func TestDeleteAffectsOnlyDiscoverability(t *testing.T) {
	reg := newTestRegistry(time.Hour)

	session, err := reg.Create(1)
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	reg.Delete(session.ID())

	if _, err := reg.Get(session.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
	// The held reference keeps working after deletion.
	if session.State().Terminal() {
		t.Fatal("held session reference should remain usable")
	}
}

func TestExpireEvictsAfterRetention(t *testing.T) {
	reg := newTestRegistry(time.Nanosecond)

	session, err := reg.Create(1)
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}

	// Without Expire the entry never ages out.
	if _, err := reg.Get(session.ID()); err != nil {
		t.Fatalf("Get before expire = %v", err)
	}

	reg.Expire(session.ID())
	time.Sleep(time.Millisecond)

	if _, err := reg.Get(session.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after retention = %v, want ErrNotFound", err)
	}
}

func TestExpireUnknownIsNoop(t *testing.T) {
	reg := newTestRegistry(time.Hour)
	reg.Expire("missing")
	if reg.Len() != 0 {
		t.Fatalf("Len = %d, want 0", reg.Len())
	}
}
