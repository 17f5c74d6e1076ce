package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tkscraper/pkg/crawler"
)

// jsonFiles lists the record files in dir
func jsonFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*"+recordExt))
	require.NoError(t, err)
	return matches
}

func TestDatasetPush(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dataset")

	ds, err := NewDataset(dir, nil)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Empty(t, jsonFiles(t, dir))

	rec := &crawler.ProcessedRecord{
		ID:             "7301",
		Description:    "glass skin",
		EngagementRate: 20,
		Author:         crawler.Author{UniqueID: "glowqueen"},
		Comments:       []crawler.Comment{{CID: "c1", IsAuthorReply: true}},
	}
	require.NoError(t, ds.Push(context.Background(), rec))

	data, err := os.ReadFile(filepath.Join(dir, "7301.json"))
	require.NoError(t, err)

	var got crawler.ProcessedRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "glowqueen", got.Author.UniqueID)
	require.Len(t, got.Comments, 1)
	assert.True(t, got.Comments[0].IsAuthorReply)

	assert.NoFileExists(t, filepath.Join(dir, "7301.json.tmp"))
}

func TestDatasetLeavesExistingFilesAlone(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), []byte("not json"), 0644))

	ds, err := NewDataset(dir, nil)
	require.NoError(t, err)

	require.NoError(t, ds.Push(context.Background(), &crawler.ProcessedRecord{ID: "new"}))

	data, err := os.ReadFile(filepath.Join(dir, "old.json"))
	require.NoError(t, err)
	assert.Equal(t, "not json", string(data))
	assert.Len(t, jsonFiles(t, dir), 2)
}

func TestDatasetOverwritesSameID(t *testing.T) {
	dir := t.TempDir()
	ds, err := NewDataset(dir, nil)
	require.NoError(t, err)

	require.NoError(t, ds.Push(context.Background(), &crawler.ProcessedRecord{ID: "1", Description: "first"}))
	require.NoError(t, ds.Push(context.Background(), &crawler.ProcessedRecord{ID: "1", Description: "second"}))

	data, err := os.ReadFile(filepath.Join(dir, "1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "second")
	assert.Len(t, jsonFiles(t, dir), 1)
}

func TestDatasetRejectsUnsafeIDs(t *testing.T) {
	dir := t.TempDir()
	ds, err := NewDataset(dir, nil)
	require.NoError(t, err)

	for _, id := range []string{"", "..", "../escape", `a\b`} {
		assert.Error(t, ds.Push(context.Background(), &crawler.ProcessedRecord{ID: id}), id)
	}
	assert.Empty(t, jsonFiles(t, dir))
}

func TestDatasetConcurrentPush(t *testing.T) {
	dir := t.TempDir()
	ds, err := NewDataset(dir, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			assert.NoError(t, ds.Push(context.Background(), &crawler.ProcessedRecord{ID: id}))
		}(i)
	}
	wg.Wait()
	assert.Len(t, jsonFiles(t, dir), 20)
}

func TestDatasetPushCancelled(t *testing.T) {
	dir := t.TempDir()
	ds, err := NewDataset(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ds.Push(ctx, &crawler.ProcessedRecord{ID: "1"}), context.Canceled)
	assert.Empty(t, jsonFiles(t, dir))
}
