package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tkscraper/pkg/crawler"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetQuietMode(false)
	})
	return &buf
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)

	PrintInfo("Keyword", "#k-beauty")
	PrintSuccess("done")
	PrintError("Run failed", errors.New("boom"))

	out := buf.String()
	assert.NotContains(t, out, "k-beauty")
	assert.NotContains(t, out, "done")
	assert.Contains(t, out, "Run failed: boom")
}

func TestPrintSummary(t *testing.T) {
	buf := captureOutput(t)

	PrintSummary(crawler.Summary{
		Dispatched: 50, Records: 48, Comments: 900, Replies: 120,
		Pages: 3, Discarded: 10, Malformed: 1, SinkFailures: 1,
	}, 90*time.Second)

	out := buf.String()
	assert.Contains(t, out, "Processed 50 creators in 1m30s")
	assert.Contains(t, out, "48 records")
	assert.Contains(t, out, "10 creators over the limit discarded")
	assert.Contains(t, out, "2 items failed (1 malformed, 1 not delivered)")
	assert.NotContains(t, out, "profiles not enriched")
}

func TestProgressDisplaySink(t *testing.T) {
	buf := captureOutput(t)

	p := NewProgressDisplay("#k-beauty", 10, true)
	p.RunStarted("run-1")

	sink := p.Sink(crawler.SinkFunc(func(ctx context.Context, r *crawler.ProcessedRecord) error {
		if r.ID == "bad" {
			return errors.New("rejected")
		}
		return nil
	}))

	require.NoError(t, sink.Push(context.Background(), &crawler.ProcessedRecord{
		ID: "v1", Author: crawler.Author{UniqueID: "alice"}, EngagementRate: 4.5,
	}))
	require.Error(t, sink.Push(context.Background(), &crawler.ProcessedRecord{
		ID: "bad", Author: crawler.Author{UniqueID: "bob"},
	}))

	assert.Equal(t, 1, p.delivered)
	assert.Equal(t, 1, p.failed)

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "@alice v1")
	assert.Contains(t, out, "4.50% engagement")
	assert.Contains(t, out, "@bob bad - rejected")
}

func TestProgressDisplayTrackAndFinish(t *testing.T) {
	buf := captureOutput(t)

	p := NewProgressDisplay("kw", 5, false)
	p.RunStarted("run-1")

	var stats crawler.Stats
	stats.Dispatched.Store(5)
	stats.Records.Store(5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Track(ctx, &stats, time.Hour)

	p.RunFinished(nil, time.Now().Add(4*time.Hour))

	out := buf.String()
	assert.Contains(t, out, "Processed 5 creators")
	assert.Contains(t, out, "next run in 3h59m")
	assert.False(t, strings.Contains(out, "Run failed"))
}
