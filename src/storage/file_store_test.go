package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"memo-app/src/domain"
	"memo-app/src/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("ファイルがなければ未保存扱い", func(t *testing.T) {
		s, err := storage.NewFileStore(filepath.Join(t.TempDir(), "nested", "memos.json"), newTestLogger())
		require.NoError(t, err)

		_, ok, err := s.Get(ctx, "memos")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.DirExists(t, filepath.Dir(s.Path()))
	})

	t.Run("別インスタンスから読み戻せる", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "memos.json")
		s, err := storage.NewFileStore(path, newTestLogger())
		require.NoError(t, err)

		require.NoError(t, s.Set(ctx, "memos", `[{"id":1}]`))
		require.NoError(t, s.Set(ctx, "nextId", "2"))

		reopened, err := storage.NewFileStore(path, newTestLogger())
		require.NoError(t, err)

		memos, ok, err := reopened.Get(ctx, "memos")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"id":1}]`, memos)

		nextID, ok, err := reopened.Get(ctx, "nextId")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "2", nextID)
	})

	t.Run("一時ファイルが残らない", func(t *testing.T) {
		dir := t.TempDir()
		s, err := storage.NewFileStore(filepath.Join(dir, "memos.json"), newTestLogger())
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "nextId", "1"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "memos.json", entries[0].Name())
	})

	t.Run("壊れたファイル", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "memos.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
		s, err := storage.NewFileStore(path, newTestLogger())
		require.NoError(t, err)

		_, _, err = s.Get(ctx, "memos")
		assert.ErrorIs(t, err, domain.ErrCorruptState)
	})
}
