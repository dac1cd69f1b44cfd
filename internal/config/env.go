package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// FromEnv overlays MULTIPART_* environment variables onto cfg. Size
// variables accept plain byte counts or humanized sizes such as "10MiB".
func FromEnv(cfg *Config) {
	if v := os.Getenv("MULTIPART_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MULTIPART_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("MULTIPART_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FsyncIntervalMs = n
		}
	}
	if v := os.Getenv("MULTIPART_COMPRESSION"); v != "" {
		cfg.Compression = v
	}
	if v := os.Getenv("MULTIPART_NAMESPACE"); v != "" {
		cfg.Paging.Namespace = v
	}
	if v := os.Getenv("MULTIPART_BUFFER_SIZE"); v != "" {
		if n, err := humanize.ParseBytes(v); err == nil {
			cfg.Paging.BufferSize = int(n)
		}
	}
	if v := os.Getenv("MULTIPART_PAGE_SIZE"); v != "" {
		if n, err := humanize.ParseBytes(v); err == nil {
			cfg.Paging.PageSize = n
		}
	}
	if v := os.Getenv("MULTIPART_READ_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReadConcurrency = n
		}
	}
	if v := os.Getenv("MULTIPART_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MULTIPART_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("MULTIPART_LOG_REDACT"); v != "" {
		cfg.Log.Redact = nil
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Log.Redact = append(cfg.Log.Redact, p)
			}
		}
	}
}
