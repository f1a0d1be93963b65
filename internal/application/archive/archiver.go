package archive

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/artfolio/engagement-service/internal/domain"
	"github.com/artfolio/engagement-service/internal/metrics"
)

type Clock interface {
	Now() time.Time
}

// Source is the hot store the archiver drains.
type Source interface {
	ScanEngagementKeys(ctx context.Context) ([]string, error)
	GetEngagementByKey(ctx context.Context, key string) (*domain.Engagement, error)
	DeleteEngagementKeys(ctx context.Context, keys []string) error
}

// Sink receives drained records. Inserts must tolerate replays.
type Sink interface {
	InsertBatch(ctx context.Context, records []*domain.Engagement) (int, error)
}

type Config struct {
	Interval   time.Duration // sweep cadence
	StaleAfter time.Duration // idle time before a record is drained
	BatchSize  int           // keys archived per sweep
}

func (c Config) withDefaults() Config {
	if c.Interval == 0 {
		c.Interval = 5 * time.Minute
	}
	if c.StaleAfter == 0 {
		// half the default engagement TTL, so idle records are still in
		// the hot store when they become drainable
		c.StaleAfter = 15 * time.Minute
	}
	if c.BatchSize == 0 {
		c.BatchSize = 200
	}
	return c
}

// Archiver sweeps idle engagement records out of the hot store into
// durable storage. Deleting only after a successful insert means a
// crash mid-sweep re-archives the same rows, which the conflict-tolerant
// sink absorbs.
type Archiver struct {
	source Source
	sink   Sink
	clock  Clock
	cfg    Config
}

func New(source Source, sink Sink, clock Clock, cfg Config) *Archiver {
	return &Archiver{source: source, sink: sink, clock: clock, cfg: cfg.withDefaults()}
}

// Start runs the sweep loop until ctx is cancelled.
func (a *Archiver) Start(ctx context.Context) {
	go func() {
		log := zlog.With().Str("component", "engagement_archiver").Logger()

		ticker := time.NewTicker(a.cfg.Interval)
		defer ticker.Stop()

		var lastErr string
		var lastAt time.Time

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopped")
				return
			case <-ticker.C:
				n, err := a.RunOnce(ctx)
				if err != nil {
					if err.Error() != lastErr || time.Since(lastAt) > 10*time.Second {
						log.Warn().Err(err).Msg("archive sweep failed")
						lastErr = err.Error()
						lastAt = time.Now()
					}
					continue
				}
				lastErr = ""
				if n > 0 {
					log.Info().Int("archived", n).Msg("sweep complete")
				}
			}
		}
	}()
}

// RunOnce performs a single sweep and reports how many records moved.
func (a *Archiver) RunOnce(ctx context.Context) (int, error) {
	keys, err := a.source.ScanEngagementKeys(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := a.clock.Now().Add(-a.cfg.StaleAfter)

	var records []*domain.Engagement
	var drained []string
	for _, key := range keys {
		if len(records) == a.cfg.BatchSize {
			break
		}
		e, err := a.source.GetEngagementByKey(ctx, key)
		if err != nil {
			return 0, err
		}
		if e == nil {
			// expired between scan and read
			continue
		}
		if e.UpdatedAt.After(cutoff) {
			continue
		}
		records = append(records, e)
		drained = append(drained, key)
	}

	if len(records) == 0 {
		return 0, nil
	}

	inserted, err := a.sink.InsertBatch(ctx, records)
	if err != nil {
		return 0, err
	}
	metrics.RecordArchived(inserted)

	if err := a.source.DeleteEngagementKeys(ctx, drained); err != nil {
		// rows are durable; the next sweep re-reads and the sink
		// skips the duplicates
		zlog.Warn().Err(err).Int("keys", len(drained)).Msg("hot store drain failed")
	}

	return inserted, nil
}
