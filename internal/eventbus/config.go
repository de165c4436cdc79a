package eventbus

import "time"

type Config struct {
	// Empty disables the consumer
	URL           string        `envconfig:"DRAWBERRY_NATS_URL"`
	Subject       string        `envconfig:"DRAWBERRY_NATS_SUBJECT" default:"drawberry.rooms.*.actions"`
	Queue         string        `envconfig:"DRAWBERRY_NATS_QUEUE" default:"drawberry"`
	MaxReconnects int           `envconfig:"DRAWBERRY_NATS_MAX_RECONNECTS" default:"-1"`
	ReconnectWait time.Duration `envconfig:"DRAWBERRY_NATS_RECONNECT_WAIT" default:"2s"`
	Buffer        int           `envconfig:"DRAWBERRY_NATS_BUFFER" default:"256"`
}

func (c Config) Enabled() bool {
	return c.URL != ""
}
