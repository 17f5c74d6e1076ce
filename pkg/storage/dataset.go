package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tkscraper/pkg/crawler"
	"tkscraper/pkg/logger"
)

const recordExt = ".json"

// Dataset stores one JSON file per record
type Dataset struct {
	dir    string
	logger logger.Logger
}

// NewDataset creates dir if needed
func NewDataset(dir string, log logger.Logger) (*Dataset, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %w", err)
	}

	return &Dataset{
		dir:    dir,
		logger: logger.OrNop(log).WithFields(map[string]interface{}{"component": "dataset", "dir": dir}),
	}, nil
}

// Push writes record to <id>.json, overwriting any file of that name
func (d *Dataset) Push(ctx context.Context, record *crawler.ProcessedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := fileID(record.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", record.ID, err)
	}

	if err := writeAtomic(filepath.Join(d.dir, id+recordExt), data); err != nil {
		return err
	}

	d.logger.WithField("video_id", record.ID).Debug("Record saved")
	return nil
}

// fileID rejects ids that would escape the dataset directory
func fileID(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("invalid record id %q", id)
	}
	return id, nil
}

func writeAtomic(filename string, data []byte) error {
	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
