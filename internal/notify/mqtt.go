package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/logging"
)

const (
	mqttConnectTimeout = 30 * time.Second
	mqttPublishTimeout = 10 * time.Second
)

// MQTTNotifier publishes notification events as JSON to an MQTT topic, for
// downstream delivery systems that subscribe to the broker.
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

// NewMQTTNotifier connects to the configured broker.
func NewMQTTNotifier(settings *conf.MQTTSettings) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(settings.Broker)
	opts.SetClientID("birdtag-notify")
	opts.SetAutoReconnect(true)
	if settings.Username != "" {
		opts.SetUsername(settings.Username)
		opts.SetPassword(settings.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, errors.Newf("timeout connecting to MQTT broker %s", settings.Broker).
			Category(errors.CategoryNetwork).
			Component("notify").
			Build()
	}
	if err := token.Error(); err != nil {
		return nil, errors.New(fmt.Errorf("connecting to MQTT broker: %w", err)).
			Category(errors.CategoryNetwork).
			Component("notify").
			Build()
	}

	return &MQTTNotifier{
		client: client,
		topic:  settings.Topic,
		logger: logging.ForService("notify"),
	}, nil
}

func (n *MQTTNotifier) Send(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.New(err).Category(errors.CategoryNotification).Component("notify").Build()
	}

	token := n.client.Publish(n.topic, 0, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errors.Newf("timeout publishing notification to %s", n.topic).
			Category(errors.CategoryNotification).
			Component("notify").
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(fmt.Errorf("publishing notification: %w", err)).
			Category(errors.CategoryNotification).
			Component("notify").
			Build()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	n.logger.Debug("notification published", "topic", n.topic, "recipient", event.Recipient)
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
