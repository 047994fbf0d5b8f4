// Package audit records player actions without ever slowing the game down.
//
// Each entry is handed to a bounded worker pool. A worker tries the sink a
// fixed number of times and then drops the entry; a full pool drops it at once.
package audit

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mcoot/arcade/internal/dependencies/clock"
	"github.com/mcoot/arcade/internal/model"
)

// Sink persists audit entries
type Sink interface {
	AppendAudit(ctx context.Context, entry *model.AuditEntry) error
}

// Config holds configuration for the recorder
type Config struct {
	// Workers caps concurrent sink writes
	Workers int
	// MaxAttempts is how many times an entry is offered to the sink
	MaxAttempts int
	// AttemptTimeout bounds a single sink write
	AttemptTimeout time.Duration
	// RetryBackoff is the pause between attempts
	RetryBackoff time.Duration
	// DrainTimeout bounds how long Close waits for in-flight writes
	DrainTimeout time.Duration
}

// DefaultConfig returns default recorder configuration
func DefaultConfig() Config {
	return Config{
		Workers:        16,
		MaxAttempts:    3,
		AttemptTimeout: 2 * time.Second,
		RetryBackoff:   100 * time.Millisecond,
		DrainTimeout:   5 * time.Second,
	}
}

// Stats counts what happened to recorded entries
type Stats struct {
	Written int64
	Dropped int64
}

// Recorder is a fire-and-forget audit log
type Recorder struct {
	sink   Sink
	clock  clock.Clock
	pool   *ants.Pool
	cfg    Config
	logger *slog.Logger

	written atomic.Int64
	dropped atomic.Int64
}

// New creates a Recorder backed by a non-blocking worker pool
func New(sink Sink, clock clock.Clock, cfg Config, logger *slog.Logger) (*Recorder, error) {
	defaults := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaults.AttemptTimeout
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaults.DrainTimeout
	}

	pool, err := ants.NewPool(cfg.Workers,
		ants.WithNonblocking(true),
		ants.WithExpiryDuration(60*time.Second),
		ants.WithPanicHandler(func(p any) {
			logger.Error("audit worker panic", slog.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		sink:   sink,
		clock:  clock,
		pool:   pool,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "audit")),
	}, nil
}

// Record queues an entry and returns immediately. Failures are logged, never returned.
func (r *Recorder) Record(playerID model.PlayerID, action string, payload map[string]any) {
	entry := &model.AuditEntry{
		PlayerID:  playerID,
		Action:    action,
		Payload:   payload,
		Timestamp: r.clock.Now(),
	}

	if err := r.pool.Submit(func() { r.write(entry) }); err != nil {
		r.dropped.Add(1)
		r.logger.Warn("audit entry dropped",
			slog.String("player_id", string(playerID)),
			slog.String("action", action),
			slog.String("reason", err.Error()),
		)
	}
}

func (r *Recorder) write(entry *model.AuditEntry) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.AttemptTimeout)
		lastErr = r.sink.AppendAudit(ctx, entry)
		cancel()
		if lastErr == nil {
			r.written.Add(1)
			return
		}
		if attempt < r.cfg.MaxAttempts && r.cfg.RetryBackoff > 0 {
			time.Sleep(r.cfg.RetryBackoff)
		}
	}

	r.dropped.Add(1)
	r.logger.Warn("audit entry dropped after retries",
		slog.String("player_id", string(entry.PlayerID)),
		slog.String("action", entry.Action),
		slog.Int("attempts", r.cfg.MaxAttempts),
		slog.String("error", lastErr.Error()),
	)
}

// Stats returns counters for written and dropped entries
func (r *Recorder) Stats() Stats {
	return Stats{
		Written: r.written.Load(),
		Dropped: r.dropped.Load(),
	}
}

// Close waits for in-flight writes (up to DrainTimeout) and releases the pool
func (r *Recorder) Close() error {
	return r.pool.ReleaseTimeout(r.cfg.DrainTimeout)
}
