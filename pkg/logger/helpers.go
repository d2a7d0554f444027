package logger

import errs "museumscraper/pkg/errors"

// LogRequest logs a completed HTTP exchange with the collection API
func LogRequest(l Logger, method, url string, statusCode int, durationMs int64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	default:
		l.WarnWithFields("HTTP request client error", fields)
	}
}

// LogObject logs the outcome of processing one catalogue object. Failures
// carry their error type and whether a replay is likely to help.
func LogObject(l Logger, id string, err error) {
	entry := l.WithField("object_id", id)
	if err != nil {
		errorType := errs.TypeOf(err)
		entry.WithError(err).WithFields(map[string]interface{}{
			"error_type": string(errorType),
			"transient":  errs.IsTransient(errorType),
		}).Error("Object failed, added to retry log")
		return
	}
	entry.Info("Object saved")
}

// LogRunSummary logs totals at the end of a catalogue or replay pass
func LogRunSummary(l Logger, mode string, processed, succeeded, failed int) {
	l.InfoWithFields("Run finished", map[string]interface{}{
		"mode":      mode,
		"processed": processed,
		"succeeded": succeeded,
		"failed":    failed,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(string) {}
func (n nopLogger) Info(string) {}
func (n nopLogger) Warn(string) {}
func (n nopLogger) Error(string) {}
func (n nopLogger) WithField(string, interface{}) Logger { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger { return n }
func (n nopLogger) WithError(error) Logger { return n }
func (n nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n nopLogger) InfoWithFields(string, map[string]interface{}) {}
func (n nopLogger) WarnWithFields(string, map[string]interface{}) {}
func (n nopLogger) ErrorWithFields(string, map[string]interface{}) {}
