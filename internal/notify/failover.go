package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"cardapio/internal/domain"
	"cardapio/internal/logging"
	"cardapio/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverBus uses the primary bus until it errors, then the fallback, and
// retries the primary once a minute.
type FailoverBus struct {
	primary  domain.NotificationBus
	fallback domain.NotificationBus
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverBus(primary, fallback domain.NotificationBus, logger *zerolog.Logger) *FailoverBus {
	return &FailoverBus{
		primary:  primary,
		fallback: fallback,
		logger:   logging.Component(logger, "failover_bus"),
		now:      time.Now,
	}
}

func (b *FailoverBus) Name() string { return b.primary.Name() }

func (b *FailoverBus) markDown(err error) {
	b.logger.Error().Err(err).Msg("Primary notification bus failed, falling back")
	b.isDown.Store(true)
	b.mu.Lock()
	b.lastCheck = b.now()
	b.mu.Unlock()
}

// usePrimary reports whether the primary should be tried for this call.
func (b *FailoverBus) usePrimary() bool {
	if !b.isDown.Load() {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.now().Sub(b.lastCheck) > recoveryInterval {
		b.lastCheck = b.now()
		return true
	}
	return false
}

func (b *FailoverBus) recovered() {
	if b.isDown.Swap(false) {
		b.logger.Info().Msg("Primary notification bus recovered")
	}
}

// Publish always reaches the fallback so local subscribers see every update.
func (b *FailoverBus) Publish(ctx context.Context, n models.UpdateNotification) error {
	if b.usePrimary() {
		if err := b.primary.Publish(ctx, n); err != nil {
			b.markDown(err)
		} else {
			b.recovered()
		}
	}
	return b.fallback.Publish(ctx, n)
}

// Subscribe merges both buses. A failed primary subscription is not fatal.
func (b *FailoverBus) Subscribe(ctx context.Context) (<-chan models.UpdateNotification, error) {
	local, err := b.fallback.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := b.primary.Subscribe(ctx)
	if err != nil {
		b.markDown(err)
		return local, nil
	}

	out := make(chan models.UpdateNotification, 16)
	go mergeUnique(ctx, out, local, remote)
	return out, nil
}

// mergeUnique forwards from both inputs, dropping a notification already seen
// on the other input.
func mergeUnique(ctx context.Context, out chan<- models.UpdateNotification, a, b <-chan models.UpdateNotification) {
	defer close(out)

	type key struct {
		ts       int64
		instance string
	}
	seen := make(map[key]struct{})

	for a != nil || b != nil {
		var n models.UpdateNotification
		var ok bool
		select {
		case <-ctx.Done():
			return
		case n, ok = <-a:
			if !ok {
				a = nil
				continue
			}
		case n, ok = <-b:
			if !ok {
				b = nil
				continue
			}
		}

		k := key{n.Timestamp, n.InstanceID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if len(seen) > 256 {
			seen = map[key]struct{}{k: {}}
		}

		select {
		case out <- n:
		case <-ctx.Done():
			return
		}
	}
}

func (b *FailoverBus) LastUpdate(ctx context.Context) (string, error) {
	if b.usePrimary() {
		v, err := b.primary.LastUpdate(ctx)
		if err == nil {
			b.recovered()
			return v, nil
		}
		b.markDown(err)
	}
	return b.fallback.LastUpdate(ctx)
}

func (b *FailoverBus) Latest(ctx context.Context) (*models.UpdateNotification, error) {
	if b.usePrimary() {
		n, err := b.primary.Latest(ctx)
		if err == nil {
			b.recovered()
			return n, nil
		}
		b.markDown(err)
	}
	return b.fallback.Latest(ctx)
}
