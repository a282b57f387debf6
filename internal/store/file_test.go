package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/resume-versions/internal/logger"
)

func TestFileStore_CreatesDirectoryOnPut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "company-versions")
	s := NewFileStore(dir, nil)

	require.NoError(t, s.Put(context.Background(), "acme", newHistory("acme", "Acme")))

	_, err := os.Stat(filepath.Join(dir, "acme.json"))
	assert.NoError(t, err)
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(ctx, "acme", newHistory("acme", "Acme")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acme.json", entries[0].Name())
}

func TestFileStore_ListSkipsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zap.WarnLevel)
	s := NewFileStore(dir, &logger.Logger{SugaredLogger: zap.New(core).Sugar()})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "acme", newHistory("acme", "Acme")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{oops"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dangling.json"),
		[]byte(`{"companyId":"dangling","versions":[{"id":"v1","companyId":"dangling","version":1}],"currentVersionId":"v9"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.json"), 0o755))

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "acme", all[0].CompanyID)
	assert.Equal(t, 2, logs.FilterMessage("skipping corrupt history record").Len())
}

func TestFileStore_ListFailsOnReadErrors(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, nil)
	require.NoError(t, s.Put(context.Background(), "acme", newHistory("acme", "Acme")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	all, err := s.ListAll(ctx)
	assert.Nil(t, all)
	var sErr *StorageError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "list", sErr.Op)
	assert.ErrorIs(t, err, context.Canceled)

	// a record path that cannot be read as a file is not corruption
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(dir, "linked.json")))
	all, err = s.ListAll(context.Background())
	assert.Nil(t, all)
	require.Error(t, err)
	assert.False(t, IsCorrupt(err))
}

func TestFileStore_GetCorruptRecordFails(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{oops"), 0o644))

	got, err := s.Get(context.Background(), "broken")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, IsCorrupt(err))
}

func TestFileStore_InvalidKeysAreAbsent(t *testing.T) {
	s := NewFileStore(t.TempDir(), nil)
	ctx := context.Background()

	got, err := s.Get(ctx, "../outside")
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err := s.Delete(ctx, "../outside")
	require.NoError(t, err)
	assert.False(t, deleted)

	h := newHistory("acme", "Acme")
	h.CompanyID = "../outside"
	err = s.Put(ctx, "../outside", h)
	var sErr *StorageError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "invalid key", sErr.Message)
}

func TestFileStore_ListMissingDirectory(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileStore_CancelledContext(t *testing.T) {
	s := NewFileStore(t.TempDir(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Put(ctx, "acme", newHistory("acme", "Acme"))
	var sErr *StorageError
	require.ErrorAs(t, err, &sErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_RawIsACopy(t *testing.T) {
	s := NewMemoryStore(nil)
	require.NoError(t, s.Put(context.Background(), "acme", newHistory("acme", "Acme")))

	raw, ok := s.Raw("acme")
	require.True(t, ok)
	raw[0] = 'X'

	again, _ := s.Raw("acme")
	assert.Equal(t, byte('{'), again[0])

	_, ok = s.Raw("missing")
	assert.False(t, ok)
}
