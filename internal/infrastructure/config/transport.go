package config

import "time"

// TransportConfig holds the websocket pub/sub broker's listen address and
// publish rate.
type TransportConfig struct {
	// Address is the host:port the broker's HTTP/websocket server listens on.
	Address string `mapstructure:"address" validate:"required"`

	// TopicPrefix holds the mine/truck part of a field bus's
	// mine/truck/{id}/{topic} template. The websocket broker does not read
	// it: its envelopes carry bare topic names.
	TopicPrefix string `mapstructure:"topic_prefix"`

	// PublishInterval is the minimum spacing between state broadcasts.
	PublishInterval time.Duration `mapstructure:"publish_interval" validate:"required"`
}
