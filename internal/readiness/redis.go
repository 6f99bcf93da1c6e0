package readiness

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// redisPinger is implemented by the go-redis client adapter and by test
// doubles.
type redisPinger interface {
	PingResult(ctx context.Context) (string, error)
	Close() error
}

type realRedisPinger struct {
	client *redis.Client
}

func (r *realRedisPinger) PingResult(ctx context.Context) (string, error) {
	return r.client.Ping(ctx).Result()
}

func (r *realRedisPinger) Close() error {
	return r.client.Close()
}

// RedisPing passes when the cache answers PING with PONG.
type RedisPing struct {
	Addr     string
	Password string
	CB       *gobreaker.CircuitBreaker

	pinger redisPinger
}

func (r *RedisPing) Name() string { return "redis:" + r.Addr }

func (r *RedisPing) Check(ctx context.Context) error {
	_, err := r.CB.Execute(func() (any, error) {
		p := r.pinger
		if p == nil {
			p = &realRedisPinger{client: redis.NewClient(&redis.Options{
				Addr:     r.Addr,
				Password: r.Password,
			})}
			defer p.Close() //nolint:errcheck
		}

		val, err := p.PingResult(ctx)
		if err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		if val != "PONG" {
			return nil, fmt.Errorf("unexpected PING response: %q", val)
		}
		return nil, nil
	})
	return err
}
