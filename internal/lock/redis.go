package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultRetryWait = 25 * time.Millisecond
	redisKeyPrefix   = "fundledger:lock:"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the key's expiry only while it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a Locker shared across processes through Redis SET NX PX.
type RedisLocker struct {
	client    redis.UniversalClient
	ttl       time.Duration
	retryWait time.Duration
}

// NewRedisLocker builds a RedisLocker. ttl <= 0 uses 30s. A held lock is renewed every
// ttl/3 until released, so the ttl only bounds how long a crashed holder blocks others.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl, retryWait: defaultRetryWait}
}

// Lock polls SET NX until it wins the key or ctx is done.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock: acquire %s: %w", key, ctx.Err())
		case <-timer.C:
		}

		ok, errSet := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if errSet != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", key, errSet)
		}
		if ok {
			break
		}
		timer.Reset(r.retryWait)
	}

	stop := make(chan struct{})
	go r.keepAlive(redisKey, token, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if errRelease := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); errRelease != nil {
				log.WithError(errRelease).Warnf("lock: release %s", key)
			}
		})
	}, nil
}

func (r *RedisLocker) keepAlive(redisKey, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		renewCtx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
		held, errRenew := renewScript.Run(renewCtx, r.client, []string{redisKey}, token, r.ttl.Milliseconds()).Int()
		cancel()
		if errRenew != nil {
			log.WithError(errRenew).Warnf("lock: renew %s", redisKey)
			continue
		}
		if held == 0 {
			log.Warnf("lock: %s expired before renewal", redisKey)
			return
		}
	}
}
