// Package log provides the structured logging facade used across multipart.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a bridge handler that feeds a formatter and a set
// of outputs.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("paging"), log.Str("session", id))
//	l.Info("page entered", log.Uint64("page", 2))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting JSON
// or text formatting and multiple outputs (console, file, null). Redaction
// keeps secrets such as master keys out of the output; sampling thins out
// per-block debug lines.
//
// # Interop
//
// RedirectStdLog routes the standard library logger (Pebble's default event
// logger writes there) through a Logger.
package log
