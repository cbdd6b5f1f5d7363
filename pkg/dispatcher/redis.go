package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wlf-engine/wlf/pkg/component"
	"github.com/wlf-engine/wlf/pkg/log"
	"github.com/wlf-engine/wlf/pkg/metrics"
)

// RedisModeKind discriminates the four Redis write operations a Redis
// dispatcher can perform.
type RedisModeKind int

const (
	RedisModeRPush RedisModeKind = iota // default
	RedisModeLPush
	RedisModePub
	RedisModeXAdd
)

// RedisMode is a tagged union over the four Redis write operations. Key
// is used by RPush/LPush/XAdd; Channel is used by Pub.
type RedisMode struct {
	Kind    RedisModeKind
	Key     string // template, default "wlf" for RPush
	Channel string // template
}

// RedisConnection configures the Redis server a Redis dispatcher connects
// to at startup.
type RedisConnection struct {
	Host           string // default "localhost"
	Port           int    // default 6379
	Auth           string
	DatabaseNumber int // default 0
}

// RedisConfig configures a Redis dispatcher.
type RedisConfig struct {
	ID         string
	Mode       RedisMode
	Connection RedisConnection
}

// Redis is the dispatcher component writing events to a Redis server via
// one of RPush, LPush, Publish, or XAdd.
type Redis struct {
	cfg    RedisConfig
	client *redis.Client
	logger zerolog.Logger
}

// NewRedis constructs a Redis dispatcher and opens the connection.
func NewRedis(cfg RedisConfig) *Redis {
	if cfg.Connection.Host == "" {
		cfg.Connection.Host = "localhost"
	}
	if cfg.Connection.Port == 0 {
		cfg.Connection.Port = 6379
	}
	if cfg.Mode.Kind == RedisModeRPush && cfg.Mode.Key == "" {
		cfg.Mode.Key = "wlf"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Connection.Host, cfg.Connection.Port),
		Password: cfg.Connection.Auth,
		DB:       cfg.Connection.DatabaseNumber,
	})

	return &Redis{cfg: cfg, client: client, logger: log.WithComponent(cfg.ID)}
}

func (d *Redis) ID() string           { return d.cfg.ID }
func (d *Redis) Kind() component.Kind { return component.KindDispatcher }

func (d *Redis) Run(ctx context.Context, r component.Router) error {
	defer d.client.Close()

	for {
		e, err := r.PollEvent(ctx, d.cfg.ID)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		template := d.cfg.Mode.Key
		if d.cfg.Mode.Kind == RedisModePub {
			template = d.cfg.Mode.Channel
		}
		dest, err := Substitute(template, e.Value)
		if err != nil {
			metrics.TemplateSubstitutionFailureTotal.WithLabelValues(d.cfg.ID).Inc()
			d.logger.Warn().Err(err).Msg("skipping event: key/channel template failed")
			continue
		}

		if err := d.write(ctx, dest, payload); err != nil {
			metrics.DispatchFailureTotal.WithLabelValues(d.cfg.ID).Inc()
			return fmt.Errorf("redis write: %w", err)
		}
		metrics.DispatchSuccessTotal.WithLabelValues(d.cfg.ID).Inc()
	}
}

func (d *Redis) write(ctx context.Context, dest string, payload []byte) error {
	switch d.cfg.Mode.Kind {
	case RedisModeLPush:
		return d.client.LPush(ctx, dest, payload).Err()
	case RedisModePub:
		return d.client.Publish(ctx, dest, payload).Err()
	case RedisModeXAdd:
		return d.client.XAdd(ctx, &redis.XAddArgs{
			Stream: dest,
			Values: map[string]interface{}{"event": string(payload)},
		}).Err()
	default: // RedisModeRPush
		return d.client.RPush(ctx, dest, payload).Err()
	}
}
