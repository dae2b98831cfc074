package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Save(ctx, "reports/a.jpg", "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/reports/a.jpg", url)

	b, err := os.ReadFile(filepath.Join(dir, "reports", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), b)

	assert.NoError(t, s.Delete(ctx, "reports/a.jpg"))
	assert.ErrorIs(t, s.Delete(ctx, "reports/a.jpg"), ErrFileNotFound)
}

func TestLocalStorage_StaysInsideDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "uploads"), "/uploads")
	require.NoError(t, err)

	url, err := s.Save(context.Background(), "../../escape.jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.jpg", url)
	assert.FileExists(t, filepath.Join(dir, "uploads", "escape.jpg"))

	_, err = s.Save(context.Background(), "", "image/jpeg", []byte("x"))
	assert.Error(t, err)
}
