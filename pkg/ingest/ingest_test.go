package ingest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tkscraper/pkg/config"
	"tkscraper/pkg/crawler"
	"tkscraper/pkg/errors"
	"tkscraper/pkg/logger"
)

func sampleRecord() *crawler.ProcessedRecord {
	followers := int64(2500)
	return &crawler.ProcessedRecord{
		ID:             "7301",
		CreateTime:     1700000000,
		EngagementRate: 20,
		Author: crawler.Author{
			UniqueID:      "glowqueen",
			Nickname:      "Glow Queen",
			Signature:     "skincare nerd",
			FollowerCount: &followers,
		},
	}
}

func TestToProfile(t *testing.T) {
	cfg := config.DefaultConfig().Ingest

	p := ToProfile(sampleRecord(), cfg)

	assert.Equal(t, "Glow Queen", p.Name)
	assert.Equal(t, "glowqueen", p.Username)
	assert.Equal(t, "glowqueen@gmail.com", p.Email)
	assert.Equal(t, "skincare nerd", p.Bio)
	assert.Equal(t, "https://www.tiktok.com/@glowqueen", p.ProfileURL)
	assert.Equal(t, "2023-11-14 22:13:20", p.DateLastPost)
	assert.Equal(t, cfg.PlatformIDs, p.PlatformIDs)
	assert.Equal(t, cfg.CategoryIDs, p.CategoryIDs)
	require.NotNil(t, p.Metrics.FollowerCount)
	assert.Equal(t, int64(2500), *p.Metrics.FollowerCount)
	assert.Equal(t, 20.0, p.Metrics.EngagementRate)
	assert.True(t, p.Metrics.ActiveStatus)
}

func TestToProfileWireShape(t *testing.T) {
	rec := sampleRecord()
	rec.Author.FollowerCount = nil

	data, err := json.Marshal(ToProfile(rec, config.IngestConfig{}))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"name": "Glow Queen",
		"username": "glowqueen",
		"email": "glowqueen@gmail.com",
		"bio": "skincare nerd",
		"profile_url": "https://www.tiktok.com/@glowqueen",
		"avatar_url": "",
		"location": "",
		"date_last_post": "2023-11-14 22:13:20",
		"fake_follower_rate": 0,
		"avg_engagement_by_day": "",
		"avg_posting_time": "",
		"platform_ids": [],
		"category_ids": [],
		"metrics": {"follower_count": null, "engagement_rate": 20, "active_status": true},
		"platform_metrics": []
	}`, string(data))
}

func newTestPersister(t *testing.T, handler http.HandlerFunc) (*Persister, *logger.TestLogger) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Ingest
	cfg.Endpoint = srv.URL + "/api/v1/influencers/"
	cfg.Timeout = 5 * time.Second

	log := logger.NewTestLogger()
	return NewPersister(cfg, log), log
}

func TestPushSuccess(t *testing.T) {
	var got InfluencerProfile
	p, log := newTestPersister(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/influencers/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	})

	require.NoError(t, p.Push(context.Background(), sampleRecord()))
	assert.Equal(t, "glowqueen", got.Username)
	assert.True(t, log.HasMessage("Record ingested"))
}

func TestPushRejectedIsAccepted(t *testing.T) {
	var calls atomic.Int32
	p, log := newTestPersister(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"username exists"}`))
	})

	assert.NoError(t, p.Push(context.Background(), sampleRecord()))
	assert.Equal(t, int32(1), calls.Load(), "422 must not be retried")
	assert.True(t, log.HasMessage("Ingest API rejected record, dropping it"))
}

func TestPushFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	p, log := newTestPersister(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := p.Push(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, log.HasError())
}

func TestPostJSON(t *testing.T) {
	p, _ := newTestPersister(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("status") {
		case "422":
			w.WriteHeader(http.StatusUnprocessableEntity)
		case "429":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	})
	base := p.Endpoint()

	body, err := p.PostJSON(context.Background(), base, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, "ok", body)

	_, err = p.PostJSON(context.Background(), base+"?status=422", nil)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.ErrorTypeRejected, e.Type)
	assert.Equal(t, 422, e.Code)

	_, err = p.PostJSON(context.Background(), base+"?status=429", nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRateLimit))
}

func TestPushNetworkError(t *testing.T) {
	p := NewPersister(config.IngestConfig{Endpoint: "http://127.0.0.1:1/", Timeout: time.Second}, nil)

	err := p.Push(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
}
