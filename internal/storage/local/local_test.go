package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionCreatesAndKeepsDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	b := New(root)

	require.NoError(t, b.Provision(context.Background(), []string{"avatars", "strategy"}))
	for _, dir := range []string{"avatars", "strategy"} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	marker := filepath.Join(root, "avatars", "existing.jpg")
	require.NoError(t, os.WriteFile(marker, []byte("data"), 0o644))

	require.NoError(t, b.Provision(context.Background(), []string{"avatars", "strategy"}))
	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestSaveAndOverwrite(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	ctx := context.Background()

	key := "avatars/u1/avatar-1.png"
	require.NoError(t, b.Save(ctx, key, bytes.NewReader([]byte("first")), 5, "image/png"))
	require.NoError(t, b.Save(ctx, key, bytes.NewReader([]byte("second")), 6, "image/png"))

	data, err := os.ReadFile(filepath.Join(root, "avatars", "u1", "avatar-1.png"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

type brokenReader struct{}

func (brokenReader) Read(p []byte) (int, error) { return 0, fmt.Errorf("stream cut") }

func TestSaveCleansUpPartialWrite(t *testing.T) {
	root := t.TempDir()
	b := New(root)

	err := b.Save(context.Background(), "avatars/u1/a.png", brokenReader{}, 10, "image/png")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(root, "avatars", "u1", "a.png"))
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
}

func TestDeleteIsIdempotent(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	ctx := context.Background()

	key := "avatars/u1/a.png"
	require.NoError(t, b.Save(ctx, key, bytes.NewReader([]byte("x")), 1, "image/png"))
	require.NoError(t, b.Delete(ctx, key))
	require.NoError(t, b.Delete(ctx, key))
}

func TestResolveRejectsEscapingKeys(t *testing.T) {
	b := New(t.TempDir())

	err := b.Save(context.Background(), "../outside.txt", bytes.NewReader([]byte("x")), 1, "text/plain")
	assert.Error(t, err)

	assert.Error(t, b.Delete(context.Background(), "../../etc/passwd"))
}

var _ io.Reader = brokenReader{}
