package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTooManyAttempts = errors.New("too many failed login attempts")

// Throttle はユーザー名ごとのログイン失敗回数を数える
type Throttle interface {
	Blocked(ctx context.Context, username string) (bool, error)
	Failed(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// RedisThrottle: 失敗1回目から window の間に max 回失敗したらロック。
// 複数インスタンスで回数を共有するため Redis に置く
type RedisThrottle struct {
	rdb    redis.Cmdable
	max    int64
	window time.Duration
}

func NewRedisThrottle(rdb redis.Cmdable, max int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, max: int64(max), window: window}
}

func (t *RedisThrottle) key(username string) string {
	return "medialoan:login-fail:" + strings.ToLower(strings.TrimSpace(username))
}

func (t *RedisThrottle) Blocked(ctx context.Context, username string) (bool, error) {
	n, err := t.rdb.Get(ctx, t.key(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= t.max, nil
}

func (t *RedisThrottle) Failed(ctx context.Context, username string) error {
	k := t.key(username)
	// TTL の無いキーには必ず期限を付ける（EXPIRE NX）。付け損ねたキーも次の失敗で直る
	_, err := t.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, k)
		p.ExpireNX(ctx, k, t.window)
		return nil
	})
	return err
}

func (t *RedisThrottle) Reset(ctx context.Context, username string) error {
	return t.rdb.Del(ctx, t.key(username)).Err()
}
