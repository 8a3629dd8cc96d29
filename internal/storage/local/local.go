package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend stores objects as plain files under a root directory. The
// on-disk layout mirrors the key space exactly: key "a/b/c.jpg" lands at
// "<root>/a/b/c.jpg".
type LocalBackend struct {
	root string
}

func New(root string) *LocalBackend {
	return &LocalBackend{root: root}
}

// Root returns the backing directory, for static file serving.
func (b *LocalBackend) Root() string { return b.root }

func (b *LocalBackend) Provision(ctx context.Context, prefixes []string) error {
	if err := os.MkdirAll(b.root, 0o755); err != nil {
		return fmt.Errorf("create upload root: %w", err)
	}
	for _, p := range prefixes {
		if err := os.MkdirAll(filepath.Join(b.root, p), 0o755); err != nil {
			return fmt.Errorf("create category directory %q: %w", p, err)
		}
	}
	return nil
}

func (b *LocalBackend) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := b.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %q: %w", key, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file %q: %w", key, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write file %q: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close file %q: %w", key, err)
	}
	return nil
}

func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	path, err := b.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file %q: %w", key, err)
	}
	return nil
}

// resolve joins key with the root and rejects keys that would escape it.
func (b *LocalBackend) resolve(key string) (string, error) {
	path := filepath.Join(b.root, filepath.FromSlash(key))
	rootPrefix := filepath.Clean(b.root) + string(os.PathSeparator)
	if !strings.HasPrefix(path, rootPrefix) {
		return "", fmt.Errorf("key %q escapes upload root", key)
	}
	return path, nil
}
