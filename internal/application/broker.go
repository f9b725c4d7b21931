package application

import "context"

// Broker is the message-passing transport between the bridge and the device.
// Implementations own TLS and automatic reconnection; the bridge only
// re-asserts subscriptions from the OnConnect callback, which fires on every
// successful (re)connect.
type Broker interface {
	Connect(ctx context.Context) error
	Disconnect()
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Publish(topic string, qos byte, payload string) error
	OnConnect(fn func())
	OnConnectionLost(fn func(err error))
}
