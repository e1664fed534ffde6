package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	pebblestore "github.com/colinclerk/sr/internal/storage/pebble"
)

func openCatalog(t *testing.T) *Catalog {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func TestRegisterIdempotent(t *testing.T) {
	c := openCatalog(t)
	ctx := context.Background()
	c.now = func() time.Time { return time.UnixMilli(1000) }
	if err := c.Register(ctx, "sesrec_a", "s1"); err != nil {
		t.Fatalf("register1: %v", err)
	}
	c.now = func() time.Time { return time.UnixMilli(2000) }
	if err := c.Register(ctx, "sesrec_a", "s1"); err != nil {
		t.Fatalf("register2: %v", err)
	}
	e, err := c.Get("sesrec_a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.Session != "s1" || e.CreatedAtMs != 1000 || e.Bucketed {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestRegisterConflict(t *testing.T) {
	c := openCatalog(t)
	ctx := context.Background()
	if err := c.Register(ctx, "sesrec_a", "s1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := c.Register(ctx, "sesrec_a", "s2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	c := openCatalog(t)
	if _, err := c.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersAndLimits(t *testing.T) {
	c := openCatalog(t)
	ctx := context.Background()
	for _, r := range []struct{ id, session string }{
		{"sesrec_1", "a"}, {"sesrec_2", "b"}, {"sesrec_3", "a"}, {"sesrec_4", "a"},
	} {
		if err := c.Register(ctx, r.id, r.session); err != nil {
			t.Fatalf("register %s: %v", r.id, err)
		}
	}
	all, err := c.List(ListOptions{})
	if err != nil || len(all) != 4 {
		t.Fatalf("list all: %v %d", err, len(all))
	}
	if all[0].ID != "sesrec_1" || all[3].ID != "sesrec_4" {
		t.Fatalf("unexpected order: %+v", all)
	}
	a, err := c.List(ListOptions{Session: "a", Limit: 2})
	if err != nil {
		t.Fatalf("list a: %v", err)
	}
	if len(a) != 2 || a[0].ID != "sesrec_1" || a[1].ID != "sesrec_3" {
		t.Fatalf("unexpected filtered list: %+v", a)
	}
}

func TestRegisterCancelledContext(t *testing.T) {
	c := openCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Register(ctx, "sesrec_x", "s1"); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
	if _, err := c.Get("sesrec_x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("entry should not exist: %v", err)
	}
}
