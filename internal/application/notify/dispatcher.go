package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/artfolio/engagement-service/internal/domain"
)

const LockKey = "cart_reminders"

type Config struct {
	LockTTL   time.Duration // lease length, short enough to recover from a crashed run
	Cooldown  time.Duration // minimum gap between reminders for one item
	MaxCount  int           // lifetime reminder cap per item
	BatchSize int           // items per run
}

func (c Config) withDefaults() Config {
	if c.LockTTL == 0 {
		c.LockTTL = 15 * time.Minute
	}
	if c.Cooldown == 0 {
		c.Cooldown = time.Hour
	}
	if c.MaxCount == 0 {
		c.MaxCount = 3
	}
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	return c
}

// Stats aggregates one dispatch run for the trigger's response.
type Stats struct {
	Skipped    bool          `json:"skipped"` // lock held elsewhere, run not executed
	Processed  int           `json:"processed"`
	Sent       int           `json:"sent"`
	Ineligible int           `json:"ineligible"` // no subscription or artwork gone
	Failed     int           `json:"failed"`
	Elapsed    time.Duration `json:"elapsed_ms"`
}

// Dispatcher runs the abandoned-cart reminder pass:
// Idle -> LockAcquired -> Scanning -> Sending -> Released.
type Dispatcher struct {
	lock     Locker
	items    ItemSource
	resolver Resolver
	sender   Sender
	pub      EventPublisher
	clock    Clock
	cfg      Config
}

func NewDispatcher(lock Locker, items ItemSource, resolver Resolver, sender Sender, pub EventPublisher, clock Clock, cfg Config) *Dispatcher {
	if pub == nil {
		pub = NoopPublisher{}
	}
	return &Dispatcher{
		lock:     lock,
		items:    items,
		resolver: resolver,
		sender:   sender,
		pub:      pub,
		clock:    clock,
		cfg:      cfg.withDefaults(),
	}
}

// Run executes one pass. A held lock means another run is in progress:
// the pass is skipped silently, which is the expected outcome of
// overlapping triggers, not an error. One item's failure never aborts
// the run, and the lock is released whatever the per-item outcomes.
func (d *Dispatcher) Run(ctx context.Context) (Stats, error) {
	log := zlog.With().Str("component", "notify_dispatcher").Logger()
	start := d.clock.Now()
	var stats Stats

	acquired, err := d.lock.Acquire(ctx, LockKey, d.cfg.LockTTL, start)
	if err != nil {
		return stats, err
	}
	if !acquired {
		stats.Skipped = true
		log.Debug().Msg("lock held, run skipped")
		return stats, nil
	}
	defer func() {
		if err := d.lock.Release(ctx, LockKey); err != nil {
			log.Warn().Err(err).Msg("lock release failed, lease expires on its own")
		}
	}()

	cutoff := start.Add(-d.cfg.Cooldown)
	items, err := d.items.ListEligibleForReminder(ctx, domain.ListCart, d.cfg.MaxCount, cutoff, d.cfg.BatchSize)
	if err != nil {
		stats.Elapsed = d.clock.Now().Sub(start)
		return stats, err
	}

	for _, item := range items {
		stats.Processed++
		if err := d.notify(ctx, item); err != nil {
			switch {
			case domain.Is(err, domain.CodeNotFound):
				stats.Ineligible++
			default:
				stats.Failed++
				log.Warn().Err(err).
					Str("user_id", item.UserID).
					Str("artwork_id", item.ArtworkID).
					Msg("reminder failed")
			}
			continue
		}
		stats.Sent++
	}

	stats.Elapsed = d.clock.Now().Sub(start)
	log.Info().
		Int("processed", stats.Processed).
		Int("sent", stats.Sent).
		Int("ineligible", stats.Ineligible).
		Int("failed", stats.Failed).
		Dur("elapsed", stats.Elapsed).
		Msg("dispatch run complete")
	return stats, nil
}

func (d *Dispatcher) notify(ctx context.Context, item domain.CartItem) error {
	sub, err := d.resolver.LatestSubscription(ctx, item.UserID)
	if err != nil {
		return err
	}
	if sub == nil {
		return domain.ErrNotFound("no push subscription")
	}

	art, err := d.resolver.ArtworkSummary(ctx, item.ArtworkID)
	if err != nil {
		return err
	}
	if art == nil {
		return domain.ErrNotFound("artwork missing")
	}

	if err := d.sender.Send(ctx, *sub, buildPayload(art)); err != nil {
		return err
	}

	now := d.clock.Now()
	if err := d.items.MarkNotified(ctx, item.UserID, item.ArtworkID, item.Kind, now, d.cfg.MaxCount); err != nil {
		// sent but not stamped: the cooldown query re-selects it next
		// run and the cap guard in the update bounds the damage
		return err
	}

	d.announce(ctx, item, now)
	return nil
}

func (d *Dispatcher) announce(ctx context.Context, item domain.CartItem, at time.Time) {
	body, err := json.Marshal(map[string]any{
		"user_id":     item.UserID,
		"artwork_id":  item.ArtworkID,
		"count":       item.NotificationCount + 1,
		"occurred_at": at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := d.pub.PublishEvent(ctx, "notification.sent", uuid.NewString(), body); err != nil {
		zlog.Warn().Err(err).Msg("notification event publish failed")
	}
}
