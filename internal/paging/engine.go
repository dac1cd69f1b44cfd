package paging

import (
	"context"
	"fmt"
	"time"

	logpkg "github.com/rzbill/multipart/pkg/log"
)

func (s *Session) run(ctx context.Context) {
	start := time.Now()
	s.logger.Info("session started",
		logpkg.Uint64("offset", s.offset),
		logpkg.Uint64("page_size", s.cfg.PageSize),
		logpkg.Int("buffer_size", s.cfg.BufferSize),
		logpkg.Str("namespace", s.cfg.Namespace))

	err := s.pipeline(ctx)
	if err != nil {
		s.publish(StateFailed)
		s.logger.Error("session failed",
			logpkg.Err(err),
			logpkg.Uint64("offset", s.offset),
			logpkg.Uint64("page", s.page),
			logpkg.Uint64("blocks", s.blocks))
	} else {
		s.publish(StateDone)
		s.logger.Info("session completed",
			logpkg.Uint64("offset", s.offset),
			logpkg.Uint64("blocks", s.blocks),
			logpkg.Uint64("pages", s.cache.count()),
			logpkg.Duration("elapsed", time.Since(start)))
	}

	logs := s.cache.created()
	s.res = Result{Logs: logs, Offset: s.offset, Blocks: s.blocks, Stats: s.stats}
	s.err = err
	close(s.done)
	if s.onComplete != nil {
		s.onComplete(err, logs)
	}
}

func (s *Session) pipeline(ctx context.Context) error {
	if err := s.cfg.Store.Ready(ctx); err != nil {
		return err
	}
	if s.stats == nil {
		if st := s.cfg.stater(); st != nil {
			stats, err := st.Stat(ctx)
			if err != nil {
				return err
			}
			s.stats = stats
		}
	}

	for {
		if s.stats != nil && s.offset >= s.stats.Size {
			s.publish(StateDraining)
			return nil
		}

		s.publish(StateReading)
		length := s.cfg.requestLength(s.offset, s.stats)
		chunk, err := s.cfg.Source.ReadAt(ctx, s.offset, length)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			s.publish(StateDraining)
			return nil
		}
		if len(chunk) > length {
			return fmt.Errorf("paging: source returned %d bytes for a %d byte read at offset %d", len(chunk), length, s.offset)
		}

		s.publish(StateDeriving)
		pl, created, err := s.cache.getOrCreate(ctx, s.page)
		if err != nil {
			return err
		}
		if created {
			s.logger.Info("page entered",
				logpkg.Uint64("page", s.page),
				logpkg.Str("key", pl.Key.Short()),
				logpkg.Uint64("offset", s.offset))
			if s.cfg.OnPage != nil {
				s.cfg.OnPage(s.page, pl.Log)
			}
		}

		s.publish(StateAppending)
		if err := pl.Log.Append(ctx, chunk); err != nil {
			return err
		}
		s.offset += uint64(len(chunk))
		s.blocks++
		s.logger.Debug("block appended",
			logpkg.Uint64("page", s.page),
			logpkg.Int("bytes", len(chunk)),
			logpkg.Uint64("offset", s.offset))

		if next := s.offset/s.cfg.PageSize + 1; next != s.page {
			s.publish(StateRotating)
			s.logger.Debug("page settled", logpkg.Uint64("page", s.page), logpkg.Uint64("next", next))
			if s.cfg.OnSettle != nil {
				s.cfg.OnSettle(s.page, pl.Log)
			}
			s.page = next
		}
	}
}
