package notify

import (
	"context"
	"strconv"
	"sync"
	"time"

	"cardapio/internal/models"
)

// MemoryBus is an in-process bus for single-instance deployments and tests.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers map[int]chan models.UpdateNotification
	nextSub     int
	latest      *models.UpdateNotification
	expiresAt   time.Time
	lastUpdate  string
	ttl         time.Duration
	now         func() time.Time
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subscribers: make(map[int]chan models.UpdateNotification),
		ttl:         NotificationTTL,
		now:         time.Now,
	}
}

func (b *MemoryBus) Name() string { return "memory" }

// Publish stores the notification, bumps lastUpdate and delivers to
// subscribers. Slow subscribers miss messages rather than block.
func (b *MemoryBus) Publish(ctx context.Context, n models.UpdateNotification) error {
	b.mu.Lock()
	stored := n
	b.latest = &stored
	b.expiresAt = b.now().Add(b.ttl)
	b.lastUpdate = strconv.FormatInt(n.Timestamp, 10)
	subs := make([]chan models.UpdateNotification, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		b.deliver(ch, n)
	}
	return nil
}

// deliver guards against a subscriber channel closed concurrently by Subscribe's cleanup.
func (b *MemoryBus) deliver(ch chan models.UpdateNotification, n models.UpdateNotification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, live := range b.subscribers {
		if live == ch {
			select {
			case ch <- n:
			default:
			}
			return
		}
	}
}

func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan models.UpdateNotification, error) {
	ch := make(chan models.UpdateNotification, 16)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subscribers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}

func (b *MemoryBus) LastUpdate(ctx context.Context) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdate, nil
}

func (b *MemoryBus) Latest(ctx context.Context) (*models.UpdateNotification, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.latest == nil || !b.now().Before(b.expiresAt) {
		return nil, nil
	}
	n := *b.latest
	return &n, nil
}
