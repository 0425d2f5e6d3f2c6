package library

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{Driver: "sqlite3", DSN: filepath.Join(dir, "test.db")}
	s, err := OpenStore(cfg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fastHasher keeps PBKDF2 cheap in tests.
func fastHasher() PasswordHasher { return PBKDF2Hasher{Iterations: 1_000} }

func TestMigrationIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Driver: "sqlite3", DSN: filepath.Join(dir, "lib.db")}

	first, err := OpenStore(cfg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	books := NewBookRegistry(first)
	id, err := books.Create(context.Background(), "Persist", "Me", 2001)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := OpenStore(cfg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	b, err := NewBookRegistry(second).Find(context.Background(), id)
	if err != nil {
		t.Fatalf("find after reopen: %v", err)
	}
	if b.Title != "Persist" {
		t.Fatalf("want title Persist, got %q", b.Title)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := OpenStore(Config{Driver: "oracle"}, zap.NewNop().Sugar()); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
