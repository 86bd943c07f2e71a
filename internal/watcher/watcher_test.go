package watcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/csgraph/internal/cscope"
	"github.com/zheng/csgraph/internal/storage"
)

func writeDatabase(t *testing.T, path string, names ...string) {
	t.Helper()

	f := &cscope.File{Name: "main.c", Mark: cscope.MarkFile}
	for i, n := range names {
		f.Functions = append(f.Functions, &cscope.Function{
			Symbol: cscope.Symbol{Name: n, Kind: cscope.FunctionDefinition, Line: i + 1},
			Calls:  []cscope.Symbol{{Name: "printf", Kind: cscope.FunctionCall, Line: i + 1}},
		})
	}

	var buf bytes.Buffer
	require.NoError(t, cscope.Write(&buf, &cscope.Store{Files: []*cscope.File{f}}))

	// Replace the file the way cscope does
	tmp := filepath.Join(filepath.Dir(path), "n"+filepath.Base(path))
	require.NoError(t, os.WriteFile(tmp, buf.Bytes(), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestRebuild(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cscope.out")
	indexPath := filepath.Join(dir, "index.db")
	writeDatabase(t, dbPath, "main", "helper")

	w, err := New(dbPath, indexPath)
	require.NoError(t, err)
	defer w.Stop()

	stats, err := w.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cscope.Stats{Files: 1, Functions: 2, Calls: 2}, stats)

	db, err := storage.Open(context.Background(), indexPath)
	require.NoError(t, err)
	defer db.Close()

	info, err := db.GetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dbPath, info.Source)
}

func TestRebuild_MissingDatabase(t *testing.T) {
	dir := t.TempDir()

	w, err := New(filepath.Join(dir, "cscope.out"), filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	defer w.Stop()

	_, err = w.Rebuild(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cscope.out")
	writeDatabase(t, dbPath, "main")

	done := make(chan cscope.Stats, 4)
	errs := make(chan error, 4)
	w, err := New(dbPath, filepath.Join(dir, "index.db"),
		WithDebounceDelay(20*time.Millisecond),
		WithOnRebuildDone(func(st cscope.Stats, _ time.Duration) { done <- st }),
		WithOnError(func(err error) { errs <- err }),
	)
	require.NoError(t, err)
	w.Start(context.Background())
	defer w.Stop()

	// Unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	writeDatabase(t, dbPath, "main", "helper", "util")

	select {
	case st := <-done:
		assert.Equal(t, 3, st.Functions)
	case err := <-errs:
		t.Fatalf("rebuild failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after database change")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cscope.out")
	writeDatabase(t, dbPath, "main")

	started := make(chan struct{}, 1)
	w, err := New(dbPath, filepath.Join(dir, "index.db"),
		WithDebounceDelay(10*time.Millisecond),
		WithOnRebuildStart(func() { started <- struct{}{} }),
	)
	require.NoError(t, err)
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cscope.in.out"), []byte("x"), 0o644))

	select {
	case <-started:
		t.Fatal("rebuild triggered by unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
