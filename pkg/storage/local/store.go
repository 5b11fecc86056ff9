package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const sniffBytes = 3072

var (
	ErrTooLarge   = errors.New("file exceeds upload limit")
	ErrInvalidKey = errors.New("invalid storage key")
	ErrNotFound   = errors.New("stored object not found")
)

// Object describes a stored blob.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// Store keeps uploaded files on the local filesystem under a root directory.
type Store struct {
	root string
	logg *logger.Logger
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New prepares the upload directory.
func New(cfg config.StorageConfig, logg *logger.Logger) (*Store, error) {
	root := strings.TrimSpace(cfg.UploadDir)
	if root == "" {
		return nil, errors.New("upload dir is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: abs, logg: logg}, nil
}

// Save streams r into key, stopping once maxBytes is exceeded. The content
// type is sniffed from the leading bytes.
func (s *Store) Save(ctx context.Context, key string, r io.Reader, maxBytes int64) (Object, error) {
	target, err := s.resolve(key)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Object{}, fmt.Errorf("create object dir: %w", err)
	}

	header := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Object{}, fmt.Errorf("read upload: %w", err)
	}
	header = header[:n]
	contentType := mimetype.Detect(header).String()

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	src := io.MultiReader(bytes.NewReader(header), r)
	if maxBytes > 0 {
		src = io.LimitReader(src, maxBytes+1)
	}
	written, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: src})
	if err != nil {
		cleanup()
		return Object{}, fmt.Errorf("write upload: %w", err)
	}
	if maxBytes > 0 && written > maxBytes {
		cleanup()
		return Object{}, ErrTooLarge
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return Object{}, fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return Object{}, fmt.Errorf("commit upload: %w", err)
	}
	return Object{Key: key, Size: written, ContentType: contentType}, nil
}

// Open returns a reader for key. Callers close it.
func (s *Store) Open(_ context.Context, key string) (io.ReadSeekCloser, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

// Delete removes key. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "storage_key", key), "failed to delete stored object")
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Ping checks the root directory is still writable.
func (s *Store) Ping(context.Context) error {
	f, err := os.CreateTemp(s.root, ".ping-*")
	if err != nil {
		return fmt.Errorf("upload dir not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(key)))
	if clean == "." || clean == "" || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidKey
	}
	target := filepath.Join(s.root, clean)
	rel, err := filepath.Rel(s.root, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidKey
	}
	return target, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
