package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/wavetable-labs/soundbridge/internal/infrastructure/config"
	"github.com/wavetable-labs/soundbridge/internal/infrastructure/logging"
)

// Connection tuning constants.
const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	reconnectMaxDelay = 2 * time.Minute
	disconnectQuiesce = 250 // milliseconds allowed for in-flight messages on close
)

// Client wraps the paho MQTT client with connection management and
// structured logging.
type Client struct {
	client paho.Client
	cfg    config.MQTTConfig
	logger *logging.Logger
}

// NewClient creates an MQTT client from configuration. Call Connect
// before publishing.
func NewClient(cfg config.MQTTConfig, logger *logging.Logger) *Client {
	c := &Client{cfg: cfg, logger: logger}

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(reconnectMaxDelay).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(paho.Client) {
			logger.Info("mqtt connected", "broker", cfg.Host)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c.client = paho.NewClient(opts)
	return c
}

// Connect establishes the broker connection.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect timed out after %s", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Publish sends a payload to a topic at the configured QoS. Messages
// are not retained; event streams are only meaningful live.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, byte(c.cfg.QoS), false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight messages a
// short quiesce period.
func (c *Client) Close() {
	c.client.Disconnect(disconnectQuiesce)
	c.logger.Info("mqtt disconnected")
}
