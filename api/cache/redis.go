package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

var ErrDisabled = errors.New("redis client not initialized")

// Init connects using either a redis:// URL or a plain host:port address.
// On failure the package stays disabled and every helper becomes a miss.
func Init(ctx context.Context, url, addr, password string) error {
	var client *redis.Client
	switch {
	case url != "":
		opt, err := redis.ParseURL(url)
		if err != nil {
			return fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		client = redis.NewClient(opt)
	case addr != "":
		client = redis.NewClient(&redis.Options{Addr: addr, Password: password})
	default:
		return ErrDisabled
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	Client = client
	return nil
}

func Enabled() bool { return Client != nil }

func Close() error {
	if Client == nil {
		return nil
	}
	err := Client.Close()
	Client = nil
	return err
}

// Get returns ("", nil) on a miss.
func Get(ctx context.Context, key string) (string, error) {
	if Client == nil {
		return "", ErrDisabled
	}

	val, err := Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if Client == nil {
		return ErrDisabled
	}
	return Client.Set(ctx, key, value, ttl).Err()
}

func DeleteByPrefix(ctx context.Context, prefix string) error {
	if Client == nil {
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := Client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := Client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

// FeedPrefix covers every cached page of one viewer's feed.
func FeedPrefix(userID uint) string {
	return fmt.Sprintf("feed:%d:", userID)
}

func FeedKey(userID uint, limit int) string {
	return fmt.Sprintf("%slimit=%d", FeedPrefix(userID), limit)
}

// InvalidateFeeds drops the cached feeds of every listed viewer.
func InvalidateFeeds(ctx context.Context, userIDs ...uint) error {
	if Client == nil {
		return nil
	}
	var firstErr error
	for _, id := range userIDs {
		if err := DeleteByPrefix(ctx, FeedPrefix(id)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
