package notify

import (
	"context"
	"sync"
	"time"

	"cardapio/internal/domain"
	"cardapio/internal/logging"
	"cardapio/internal/metrics"
	"cardapio/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const channelTimeout = 2 * time.Second

// Notifier fans a menu update out to every configured channel. Each channel
// is attempted independently; one failing never stops the rest.
type Notifier struct {
	channels   []domain.NotificationChannel
	instanceID string
	logger     *zerolog.Logger
	now        func() time.Time
}

// NewNotifier publishes as instanceID, or as a fresh UUID when it is empty.
func NewNotifier(logger *zerolog.Logger, instanceID string, channels ...domain.NotificationChannel) *Notifier {
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	return &Notifier{
		channels:   channels,
		instanceID: instanceID,
		logger:     logging.Component(logger, "notify"),
		now:        time.Now,
	}
}

// InstanceID identifies notifications published by this process.
func (n *Notifier) InstanceID() string { return n.instanceID }

func (n *Notifier) NotifyMenuChanged(ctx context.Context, changes map[int64]models.MenuItemPatch) models.UpdateNotification {
	note := models.UpdateNotification{
		Type:        models.NotificationTypeMenuUpdated,
		Timestamp:   n.now().UnixMilli(),
		Source:      models.NotificationSourceAdmin,
		InstanceID:  n.instanceID,
		ItemChanges: changes,
	}

	// detached so a finished HTTP request does not cancel delivery
	base := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, ch := range n.channels {
		wg.Add(1)
		go func(ch domain.NotificationChannel) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(base, channelTimeout)
			defer cancel()

			if err := ch.Publish(cctx, note); err != nil {
				metrics.IncNotification(ch.Name(), "error")
				n.logger.Warn().Err(err).Str("channel", ch.Name()).Msg("Menu update notification failed")
				return
			}
			metrics.IncNotification(ch.Name(), "ok")
		}(ch)
	}
	wg.Wait()

	n.logger.Debug().Int64("timestamp", note.Timestamp).Int("changes", len(changes)).Msg("Menu update notified")
	return note
}
