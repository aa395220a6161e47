package client

import "time"

// Config controls how a Session connects to a share-service instance.
type Config struct {
	BaseURL string // e.g. "http://localhost:8080"
	Room    string // initial room, defaults to "lobby"
	Name    string // display name sent on the socket query

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	SendQueueSize int // outbound frames buffered before Send blocks
	PendingSends  int // chat messages held while a join is in flight

	Reconnect      bool
	ReconnectDelay time.Duration
}

// DefaultConfig returns sensible defaults. Set a timeout to 0 to disable it.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      45 * time.Second,
		WriteTimeout:     10 * time.Second,
		SendQueueSize:    16,
		PendingSends:     32,
		Reconnect:        true,
		ReconnectDelay:   2 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = d.SendQueueSize
	}
	if c.PendingSends <= 0 {
		c.PendingSends = d.PendingSends
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.Name == "" {
		c.Name = "Anonymous"
	}
	return c
}
