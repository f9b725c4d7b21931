package mqtt

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	ClientID string
	TLS      bool
}

// Client adapts the paho MQTT client to the bridge's broker contract. The
// paho client owns TLS and automatic reconnection; connect/connection-lost
// callbacks registered before Connect are forwarded on every transition.
type Client struct {
	cfg    Config
	client pahomqtt.Client

	onConnect func()
	onLost    func(error)
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

func (c *Client) OnConnect(fn func()) { c.onConnect = fn }

func (c *Client) OnConnectionLost(fn func(error)) { c.onLost = fn }

// Connect dials the broker and blocks until the initial connect settles.
// The initial attempt failing is fatal to the caller; later drops are
// handled by paho's auto-reconnect.
func (c *Client) Connect(ctx context.Context) error {
	scheme := "tcp"
	if c.cfg.TLS {
		scheme = "ssl"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, c.cfg.Host, c.cfg.Port)).
		SetClientID(c.cfg.ClientID).
		SetUsername(c.cfg.Username).
		SetPassword(c.cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(15 * time.Second).
		SetOrderMatters(true)

	if c.cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		if c.onConnect != nil {
			c.onConnect()
		}
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		if c.onLost != nil {
			c.onLost(err)
		}
	})

	c.client = pahomqtt.NewClient(opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (c *Client) Disconnect() {
	if c.client != nil {
		c.client.Disconnect(250)
	}
}

// Subscribe registers handler for topic at QoS 0. Re-subscribing to an
// already-subscribed topic replaces the handler, so calling this again from
// a reconnect callback is harmless.
func (c *Client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := c.client.Subscribe(topic, 0, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}
	return nil
}

// Publish sends payload to topic and waits for the broker acknowledgment
// the requested QoS entails.
func (c *Client) Publish(topic string, qos byte, payload string) error {
	token := c.client.Publish(topic, qos, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}
