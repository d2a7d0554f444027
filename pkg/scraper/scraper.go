package scraper

import (
	"context"
	"fmt"

	"museumscraper/pkg/checkpoint"
	"museumscraper/pkg/config"
	errs "museumscraper/pkg/errors"
	"museumscraper/pkg/extract"
	"museumscraper/pkg/ledger"
	"museumscraper/pkg/logger"
	"museumscraper/pkg/models"
	"museumscraper/pkg/museum"
	"museumscraper/pkg/ratelimit"
	"museumscraper/pkg/retrylog"
	"museumscraper/pkg/storage"
)

// Result is the outcome of one object. Index counts from 1 up to Total,
// the number of ids in the batch.
type Result struct {
	ID     models.ObjectID
	Record *models.Record
	Err    error
	Index  int
	Total  int
}

// Summary counts the outcomes of a run
type Summary struct {
	Processed   int
	Succeeded   int
	Failed      int
	Interrupted bool
}

// Session holds everything one scraping run needs
type Session struct {
	client      MuseumClient
	ledger      ledger.Ledger
	retryLog    *retrylog.Log
	storage     *storage.Manager
	limiter     ratelimit.Limiter
	checkpoints *checkpoint.Manager
	config      *config.Config
	logger      logger.Logger
	onResult    func(Result)
}

// Option customises a Session
type Option func(*Session)

// WithClient replaces the HTTP collection client
func WithClient(client MuseumClient) Option {
	return func(s *Session) { s.client = client }
}

// WithLimiter replaces the limiter built from the rate limit config
func WithLimiter(limiter ratelimit.Limiter) Option {
	return func(s *Session) { s.limiter = limiter }
}

// WithLogger sets the session logger
func WithLogger(log logger.Logger) Option {
	return func(s *Session) { s.logger = log }
}

// WithLedger replaces the ledger opened from the output config
func WithLedger(l ledger.Ledger) Option {
	return func(s *Session) { s.ledger = l }
}

// WithResultHandler registers a callback invoked after every object
func WithResultHandler(fn func(Result)) Option {
	return func(s *Session) { s.onResult = fn }
}

// New creates a session from cfg. Components not supplied as options are
// built from the configuration.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	s := &Session{config: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.GetLogger()
	}

	if s.client == nil {
		client := museum.NewClient(cfg.Museum.BaseURL, cfg.Download.Timeout, s.logger)
		if cfg.Museum.UserAgent != "" {
			client.SetHeader("User-Agent", cfg.Museum.UserAgent)
		}
		client.SetImageSize(cfg.Museum.ImageWidth, cfg.Museum.ImageHeight)
		s.client = client
	}

	if s.limiter == nil {
		limiter, err := ratelimit.New(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		s.limiter = limiter
	}

	storageManager, err := storage.NewManager(cfg.ImagesPath(), cfg.Output.UnsortedFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}
	s.storage = storageManager

	checkpoints, err := checkpoint.NewManager(cfg.CheckpointPath(), s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	s.checkpoints = checkpoints

	s.retryLog = retrylog.New(cfg.RetryLogPath())

	if s.ledger == nil {
		l, err := ledger.OpenDeferred(cfg.Output.LedgerFormat, cfg.LedgerPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		s.ledger = l
	}

	s.logger.DebugWithFields("Session ready", map[string]interface{}{
		"base_url":  cfg.Museum.BaseURL,
		"ledger":    s.ledger.Path(),
		"records":   s.ledger.Len(),
		"retry_log": s.retryLog.Path(),
		"images":    s.storage.GetImagesDir(),
	})

	return s, nil
}

// Close releases the ledger
func (s *Session) Close() error {
	return s.ledger.Close()
}

// Ledger exposes the session's ledger
func (s *Session) Ledger() ledger.Ledger {
	return s.ledger
}

// RetryLog exposes the session's retry log
func (s *Session) RetryLog() *retrylog.Log {
	return s.retryLog
}

// Checkpoints exposes the session's checkpoint manager
func (s *Session) Checkpoints() *checkpoint.Manager {
	return s.checkpoints
}

// FetchCatalogue sends one catalogue request and returns the ids it lists.
// A failed request is logged and yields no ids.
func (s *Session) FetchCatalogue(ctx context.Context, query museum.CatalogueQuery) []models.ObjectID {
	ids, err := s.client.SearchObjects(ctx, query)
	if err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"start": query.Start,
			"count": query.Count,
		}).Error("Catalogue request failed")
		return nil
	}
	return ids
}

// FetchPage processes one object: detail, extraction, image, ledger row.
// On any failure the id is appended to the retry log and the error is
// returned. A ledger row is only written once the image is on disk.
func (s *Session) FetchPage(ctx context.Context, id models.ObjectID) (*models.Record, error) {
	record, err := s.fetchPage(ctx, id)
	if err != nil {
		if logErr := s.retryLog.Append(id); logErr != nil {
			s.logger.WithError(logErr).WithField("id", id).Error("Failed to append to retry log")
		}
	}
	logger.LogObject(s.logger, id.String(), err)
	return record, err
}

func (s *Session) fetchPage(ctx context.Context, id models.ObjectID) (*models.Record, error) {
	entity, err := s.client.FetchObject(ctx, id)
	if err != nil {
		return nil, err
	}

	if entity.Image == nil || *entity.Image == "" {
		return nil, errs.Parsing("object %s has no image", id)
	}
	if len(entity.Data) == 0 {
		return nil, errs.Parsing("object %s has no attributes", id)
	}

	record := extract.Extract(entity.Data)

	folder, err := s.storage.EnsureFolder(record.Author)
	if err != nil {
		return nil, errs.Write(err, "failed to prepare folder for object %s", id)
	}
	filename := storage.ImageFileName(id)

	body, err := s.client.DownloadImage(ctx, *entity.Image)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if s.storage.IsSaved(folder, filename) {
		// left by an earlier attempt whose ledger row was never written
		s.logger.DebugWithFields("Replacing existing image", map[string]interface{}{
			"id":   id,
			"path": s.storage.ImagePath(folder, filename),
		})
	}

	size, err := s.storage.SaveImage(body, folder, filename)
	if err != nil {
		return nil, errs.Write(err, "failed to save image of object %s", id)
	}

	record.Folder = folder
	record.Image = filename

	if err := s.ledger.Append(record); err != nil {
		return nil, errs.Write(err, "failed to append object %s to ledger", id)
	}

	s.logger.DebugWithFields("Image saved", map[string]interface{}{
		"id":    id,
		"path":  s.storage.ImagePath(folder, filename),
		"bytes": size,
	})
	return &record, nil
}

// ProcessIDs fetches the given objects one after another, waiting on the
// limiter before each. It stops early when ctx is done.
func (s *Session) ProcessIDs(ctx context.Context, ids []models.ObjectID) Summary {
	var summary Summary

	for _, id := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			summary.Interrupted = true
			s.logger.WithError(err).WithField("remaining", len(ids)-summary.Processed).Warn("Run interrupted")
			break
		}

		record, err := s.FetchPage(ctx, id)
		summary.Processed++
		if err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}

		if s.onResult != nil {
			s.onResult(Result{ID: id, Record: record, Err: err, Index: summary.Processed, Total: len(ids)})
		}
	}

	return summary
}

// RunOptions controls a catalogue run
type RunOptions struct {
	// Resume starts at the checkpointed offset instead of the configured one
	Resume bool
}

// Run fetches one catalogue page and processes every id on it. Once the
// page is done the checkpoint moves to the next offset.
func (s *Session) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	museumCfg := s.config.Museum
	start := museumCfg.Start

	var cp *checkpoint.Checkpoint
	if opts.Resume {
		resumed, existing, err := s.checkpoints.ResumeStart(museumCfg.Funds, museumCfg.Sort, start)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		start, cp = resumed, existing
	}

	query := s.catalogueQuery(start)

	s.logger.InfoWithFields("Fetching catalogue", map[string]interface{}{
		"funds": museumCfg.Funds,
		"sort":  museumCfg.Sort,
		"start": start,
		"count": museumCfg.Count,
	})

	ids := s.FetchCatalogue(ctx, query)
	if len(ids) == 0 {
		// a failed request or the end of the catalogue; the offset stays put
		s.logger.WarnWithFields("Catalogue page is empty", map[string]interface{}{
			"start": start,
		})
		return Summary{}, nil
	}
	s.logger.InfoWithFields("Catalogue fetched", map[string]interface{}{
		"ids": len(ids),
	})

	summary := s.ProcessIDs(ctx, ids)
	logger.LogRunSummary(s.logger, "catalogue", summary.Processed, summary.Succeeded, summary.Failed)

	if summary.Interrupted {
		return summary, nil
	}

	if cp == nil {
		var err error
		cp, err = s.checkpoints.Create(museumCfg.Funds, museumCfg.Sort, start)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to create checkpoint")
			return summary, nil
		}
	}
	if err := s.checkpoints.Advance(cp, start+museumCfg.Count, summary.Processed, summary.Succeeded, summary.Failed); err != nil {
		s.logger.WithError(err).Warn("Failed to save checkpoint")
	}

	return summary, nil
}

// catalogueQuery builds the configured search starting at start
func (s *Session) catalogueQuery(start int) museum.CatalogueQuery {
	museumCfg := s.config.Museum
	query := museum.NewFundQuery(museumCfg.Funds, museumCfg.Sort, museumCfg.Count, start)
	if museumCfg.Query != "" {
		text := museumCfg.Query
		query.Query = &text
	}
	return query
}

// Replay processes the ids recorded in the retry log. Ids that fail again
// are appended to the log again. With dedupe, repeated ids are processed
// once.
func (s *Session) Replay(ctx context.Context, dedupe bool) (Summary, error) {
	ids, err := s.retryLog.Replay()
	if err != nil {
		return Summary{}, err
	}

	total := len(ids)
	if dedupe {
		ids = retrylog.Unique(ids)
	}

	s.logger.InfoWithFields("Replaying retry log", map[string]interface{}{
		"path":    s.retryLog.Path(),
		"entries": total,
		"ids":     len(ids),
	})

	summary := s.ProcessIDs(ctx, ids)
	logger.LogRunSummary(s.logger, "replay", summary.Processed, summary.Succeeded, summary.Failed)
	return summary, nil
}
