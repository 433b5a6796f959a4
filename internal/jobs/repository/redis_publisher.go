package repository

import (
	"context"
	"encoding/json"

	"github.com/amankumarsingh77/ffserve/internal/jobs"
	"github.com/amankumarsingh77/ffserve/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

type redisPublisher struct {
	redisClient *redis.Client
	channel     string
}

// NewRedisPublisher publishes job events as JSON on a redis Pub/Sub channel.
func NewRedisPublisher(redisClient *redis.Client, channel string) jobs.Publisher {
	return &redisPublisher{
		redisClient: redisClient,
		channel:     channel,
	}
}

func (p *redisPublisher) Publish(ctx context.Context, event models.JobEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal job event")
	}
	if err := p.redisClient.Publish(ctx, p.channel, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish job event to %s", p.channel)
	}
	return nil
}

type nopPublisher struct{}

// NewNopPublisher is used when no event sink is configured.
func NewNopPublisher() jobs.Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, models.JobEvent) error {
	return nil
}
