package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings for the bridge.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RedisBridge implements Bridge on Redis pub/sub.
type RedisBridge struct {
	client *redis.Client
	origin string
	log    *slog.Logger
}

func NewRedisBridge(cfg RedisConfig, log *slog.Logger) (*RedisBridge, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisBridge{
		client: client,
		origin: uuid.NewString(),
		log:    log,
	}, nil
}

func (b *RedisBridge) Publish(ctx context.Context, ev *Event) error {
	ev.Origin = b.origin
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.client.Publish(ctx, roomChannel(ev.Room), data).Err()
}

// Run subscribes to every room channel and applies foreign events until ctx
// is done. Malformed payloads are skipped, not fatal.
func (b *RedisBridge) Run(ctx context.Context, apply func(Event)) error {
	sub := b.client.PSubscribe(ctx, channelPattern)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("bridge: drop malformed event", "err", err)
				continue
			}
			if ev.Origin == b.origin {
				continue
			}
			apply(ev)
		}
	}
}

func (b *RedisBridge) Close() error { return b.client.Close() }
