package log

import (
	"bytes"
	stdlog "log"
)

// stdWriter adapts a Logger to io.Writer, one entry per line.
type stdWriter struct {
	logger Logger
	level  Level
}

func (w *stdWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		switch w.level {
		case DebugLevel:
			w.logger.Debug(string(line))
		case WarnLevel:
			w.logger.Warn(string(line))
		case ErrorLevel, FatalLevel:
			w.logger.Error(string(line))
		default:
			w.logger.Info(string(line))
		}
	}
	return len(p), nil
}

// ToStdLogger returns a *log.Logger that writes through logger at level.
func ToStdLogger(logger Logger, level Level) *stdlog.Logger {
	return stdlog.New(&stdWriter{logger: logger, level: level}, "", 0)
}

// RedirectStdLog routes the standard library's default logger (used by
// Pebble's default event logging) through logger at info level.
func RedirectStdLog(logger Logger) {
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(&stdWriter{logger: logger.WithComponent("stdlog"), level: InfoLevel})
}
