package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/venueops-backend/pkg/config"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(config.StorageConfig{UploadDir: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestSaveOpenDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	obj, err := store.Save(ctx, "venues/v1/reports/r1/a.png", bytes.NewReader(png), 1024)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if obj.Size != int64(len(png)) {
		t.Fatalf("unexpected size %d", obj.Size)
	}
	if obj.ContentType != "image/png" {
		t.Fatalf("expected sniffed png, got %q", obj.ContentType)
	}

	rc, err := store.Open(ctx, obj.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(got, png) {
		t.Fatal("stored bytes differ")
	}

	if err := store.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, obj.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("deleting a missing object should be a no-op, got %v", err)
	}
}

func TestSaveRejectsOversize(t *testing.T) {
	store := newStore(t)
	_, err := store.Save(context.Background(), "big.txt", strings.NewReader(strings.Repeat("a", 5000)), 4096)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	entries, _ := os.ReadDir(store.root)
	if len(entries) != 0 {
		t.Fatalf("expected no leftovers, found %s", filepath.Join(store.root, entries[0].Name()))
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	store := newStore(t)
	for _, key := range []string{"../etc/passwd", "/abs/path", "", "a/../../b"} {
		if _, err := store.resolve(key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("expected invalid key for %q, got %v", key, err)
		}
	}
}

func TestPing(t *testing.T) {
	if err := newStore(t).Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
