package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tkscraper/pkg/errors"
	"tkscraper/pkg/logger"
)

// VideoProcessor turns one search item into a ProcessedRecord and pushes
// it to the sink.
type VideoProcessor struct {
	profiles *ProfileEnricher
	comments *CommentPaginator
	sink     Sink
	logger   logger.Logger
	stats    *Stats
}

// NewVideoProcessor creates a VideoProcessor
func NewVideoProcessor(profiles *ProfileEnricher, comments *CommentPaginator, sink Sink, stats *Stats, log logger.Logger) *VideoProcessor {
	if stats == nil {
		stats = &Stats{}
	}
	return &VideoProcessor{
		profiles: profiles,
		comments: comments,
		sink:     sink,
		logger:   logger.OrNop(log).WithField("component", "video_processor"),
		stats:    stats,
	}
}

// Process builds and emits the record for item. It never panics; every
// failure is logged and returned so the caller can count it, and a failed
// item emits nothing.
func (p *VideoProcessor) Process(ctx context.Context, item json.RawMessage) (err error) {
	start := time.Now()
	log := p.logger

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("video processing panicked: %v", r)
		}
		if err != nil {
			p.stats.ItemFailures.Add(1)
			if errors.IsType(err, errors.ErrorTypeItemMalformed) {
				p.stats.Malformed.Add(1)
			}
			log.WithError(err).Error("Video processing failed, item dropped")
		}
	}()

	video, err := DecodeVideoItem(item)
	if err != nil {
		return err
	}
	log = log.WithFields(map[string]interface{}{
		"video_id":  video.ID,
		"unique_id": video.Author.UniqueID,
	})

	record, err := p.Build(ctx, video)
	if err != nil {
		return err
	}

	if err := p.sink.Push(ctx, record); err != nil {
		p.stats.SinkFailures.Add(1)
		return fmt.Errorf("push record %s: %w", record.ID, err)
	}

	p.stats.Records.Add(1)
	log.InfoWithFields("Video processed", map[string]interface{}{
		"engagement_rate": record.EngagementRate,
		"comments":        len(record.Comments),
		"duration":        time.Since(start),
	})
	return nil
}

// Build assembles the record for a validated item: engagement, profile
// enrichment (stats override the search author's fields) and comments.
func (p *VideoProcessor) Build(ctx context.Context, video *VideoItem) (*ProcessedRecord, error) {
	engagement := video.EngagementRate()

	authorStats := p.profiles.Enrich(ctx, video.Author.UniqueID)

	record := &ProcessedRecord{
		Author:         video.Author.WithStats(authorStats),
		Video:          video.Video,
		Description:    video.Desc,
		ID:             video.ID,
		CreateTime:     video.CreateTime,
		Hashtags:       video.Hashtags,
		EngagementRate: engagement,
		Stats:          video.Stats,
	}

	record.Comments = p.comments.Paginate(ctx, video.ID, video.Author.UniqueID)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return record, nil
}
