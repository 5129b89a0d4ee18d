package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

const (
	redisSnapshotKey  = "talentdao:ledger:state"
	redisVersionKey   = "talentdao:ledger:schema"
	redisNotifChannel = "talentdao:ledger:updates"

	redisDialTimeout = 5 * time.Second
)

// RedisStore persists the ledger to redis and broadcasts every write on a
// pub/sub channel, which is how concurrent sessions observe each other.
type RedisStore struct {
	client *redis.Client
	logger logging.Logger
}

var _ Persistence = (*RedisStore)(nil)

func NewRedisStore(redisURL string, logger logging.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to redis ledger backend")
	return &RedisStore{client: client, logger: logger}, nil
}

func (r *RedisStore) LoadSnapshot(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, redisSnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (r *RedisStore) StoreSnapshot(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, redisSnapshotKey, data, 0).Err(); err != nil {
		return err
	}
	// The notification carries the full snapshot so subscribers do not need a
	// follow-up read.
	if err := r.client.Publish(ctx, redisNotifChannel, data).Err(); err != nil {
		r.logger.Warnf("Failed to publish ledger change notification: %v", err)
	}
	return nil
}

func (r *RedisStore) LoadVersion(ctx context.Context) (string, error) {
	version, err := r.client.Get(ctx, redisVersionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return version, err
}

func (r *RedisStore) StoreVersion(ctx context.Context, version string) error {
	return r.client.Set(ctx, redisVersionKey, version, 0).Err()
}

// Watch delivers every published snapshot to handler until ctx is done.
func (r *RedisStore) Watch(ctx context.Context, handler func(data []byte)) error {
	pubsub := r.client.Subscribe(ctx, redisNotifChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("ledger notification channel closed")
			}
			handler([]byte(msg.Payload))
		}
	}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
