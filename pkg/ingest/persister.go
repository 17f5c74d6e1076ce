package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tkscraper/pkg/config"
	"tkscraper/pkg/crawler"
	"tkscraper/pkg/errors"
	"tkscraper/pkg/logger"
)

// Persister POSTs records to the ingestion endpoint. It implements
// crawler.Sink.
type Persister struct {
	httpClient *http.Client
	endpoint   string
	cfg        config.IngestConfig
	headers    map[string]string
	logger     logger.Logger
}

// NewPersister creates a Persister for the ingest config section
func NewPersister(cfg config.IngestConfig, log logger.Logger) *Persister {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultIngestEndpoint
	}
	return &Persister{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   endpoint,
		cfg:        cfg,
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		logger: logger.OrNop(log).WithField("component", "ingest"),
	}
}

// Endpoint returns the URL records are posted to
func (p *Persister) Endpoint() string {
	return p.endpoint
}

// Push maps record and posts it once. A 422 is accepted without any
// corrective action.
func (p *Persister) Push(ctx context.Context, record *crawler.ProcessedRecord) error {
	log := p.logger.WithFields(map[string]interface{}{
		"video_id":  record.ID,
		"unique_id": record.Author.UniqueID,
	})

	_, err := p.PostJSON(ctx, p.endpoint, ToProfile(record, p.cfg))
	switch {
	case err == nil:
		log.Info("Record ingested")
		return nil
	case errors.IsType(err, errors.ErrorTypeRejected):
		// TODO: decide whether a 422 should surface as a failure once the
		// API's validation contract is known; today the record is dropped.
		log.WithError(err).Warn("Ingest API rejected record, dropping it")
		return nil
	default:
		log.WithError(err).Error("Ingest push failed")
		return err
	}
}

// PostJSON sends payload as a JSON body and returns the response body on
// 200. A 422 yields a rejected error carrying the code; any other status or
// a network failure is a transport error.
func (p *Persister) PostJSON(ctx context.Context, url string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeParse, err, "encode ingest payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeTransport, err, "create request")
	}

	resp, err := p.doRequest(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeTransport, err, "read response body")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return string(respBody), nil
	case http.StatusUnprocessableEntity:
		return "", errors.New(errors.ErrorTypeRejected, resp.StatusCode,
			fmt.Sprintf("POST %s rejected: %s", url, truncate(respBody)))
	default:
		return "", errors.New(errors.FromStatus(resp.StatusCode), resp.StatusCode,
			fmt.Sprintf("POST %s returned %s", url, http.StatusText(resp.StatusCode)))
	}
}

func (p *Persister) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range p.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		logger.LogRequest(p.logger.WithError(err), req.Method, req.URL.String(), 0, time.Since(start))
		return nil, errors.Wrap(errors.ErrorTypeTransport, err, "POST "+req.URL.String())
	}

	logger.LogRequest(p.logger, req.Method, req.URL.String(), resp.StatusCode, time.Since(start))
	return resp, nil
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
