package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/datastore"
	"github.com/john-samurai/birdtag-go/internal/events"
	"github.com/john-samurai/birdtag-go/internal/logging"
	"github.com/john-samurai/birdtag-go/internal/observability"
)

const sendTimeout = 30 * time.Second

// Consumer subscribes to record change events and turns them into
// notification deliveries.
type Consumer struct {
	store    datastore.Interface
	notifier Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewConsumer creates an event bus consumer that runs the differ for every
// record transition.
func NewConsumer(store datastore.Interface, notifier Notifier, metrics *observability.Metrics) *Consumer {
	return &Consumer{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		logger:   logging.ForService("notify"),
	}
}

// Name implements events.Consumer.
func (c *Consumer) Name() string { return "notification-differ" }

// ProcessEvent implements events.Consumer. The full record scan backs the
// per-user historical species sets. One recipient's delivery failure is
// logged and skipped; it never blocks the others.
func (c *Consumer) ProcessEvent(event events.RecordEvent) error {
	records, err := c.store.GetAll()
	if err != nil {
		return err
	}

	notifications := Diff(records, event.Old, &event.New)
	if len(notifications) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	for _, n := range notifications {
		if err := c.notifier.Send(ctx, n); err != nil {
			c.logger.Error("notification delivery failed",
				"recipient", n.Recipient,
				"error", err,
			)
			if c.metrics != nil {
				c.metrics.NotificationFailures.Inc()
			}
			continue
		}
		if c.metrics != nil {
			c.metrics.NotificationsSent.Inc()
		}
	}

	return nil
}

// FromSettings builds the configured notifier backend, defaulting to the
// structured log when no external sink is enabled.
func FromSettings(settings *conf.NotifySettings) (Notifier, error) {
	switch {
	case settings.MQTT.Enabled:
		return NewMQTTNotifier(&settings.MQTT)
	case settings.Shoutrrr.Enabled:
		return NewShoutrrrNotifier(settings.Shoutrrr.URLs, sendTimeout)
	default:
		return NewLogNotifier(), nil
	}
}
