// Package logger provides structured logging for the catalogue scraper.
//
// It wraps zerolog behind a small Logger interface so components receive a
// logger instead of reaching for a global. Console output goes to stderr and
// loses its colours when stderr is not a terminal; an optional file sink
// receives the same events as JSON.
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "scraper")
//	log.WithError(err).WithField("object_id", id).Error("Object failed")
//
// TestLogger captures messages for assertions; NewNopLogger discards them.
package logger
