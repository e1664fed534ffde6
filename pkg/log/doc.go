// Package log is the structured logger passed through every sr component.
//
// A Logger carries fields (component, session, connection) and writes
// leveled entries through a Formatter to one or more Outputs. Records flow
// through a log/slog handler, so slog-shaped callers end up in the same
// pipeline.
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("recorder"), log.Session("tab-42"))
//	l.Info("batch appended", log.Int("bytes", 812))
//
// ApplyConfig builds the process logger from SR_LOG_LEVEL/SR_LOG_FORMAT
// style settings, including redaction and per-message sampling.
// RedirectStdLog sends Pebble's standard-library logging through the same
// pipeline, and ToStdLogger backs net/http's ErrorLog.
package log
