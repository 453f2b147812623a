// Package ratelimit はユーザー名ごとのログイン試行回数を制限します。
package ratelimit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "login_attempts"

// FixedWindow はRedis上でキーごとの試行回数を数える固定ウィンドウ方式のリミッターです。
// 最初の試行でカウンターが作られ、window経過後に失効します。
// 状態はRedisに置くため、全レプリカが同じカウンターを参照します。
type FixedWindow struct {
	client redis.Cmdable
	prefix string
	limit  int64         // ウィンドウあたりの上限
	window time.Duration // どの単位でリセットするか
}

// NewFixedWindow は window あたり limit 回まで許可するリミッターを生成します。
func NewFixedWindow(client redis.Cmdable, prefix string, limit int, window time.Duration) *FixedWindow {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &FixedWindow{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

func (l *FixedWindow) key(k string) string {
	return l.prefix + ":" + k
}

// Allow は key の試行を1回記録し、上限内かどうかを返します。
func (l *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)

	// INCRとEXPIRE NXを同じトランザクションで毎回送る。
	// TTLの無いカウンターが残っていてもここで期限が付き直す。
	var incr *redis.IntCmd
	if _, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	}); err != nil {
		return false, errors.Wrap(err, "count login attempt")
	}

	return incr.Val() <= l.limit, nil
}

// Reset は key のカウンターを削除します。
func (l *FixedWindow) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return errors.Wrap(err, "reset login attempts")
	}
	return nil
}

// Disabled は常に許可します。Redisが未設定のときに使います。
type Disabled struct{}

func (Disabled) Allow(context.Context, string) (bool, error) { return true, nil }

func (Disabled) Reset(context.Context, string) error { return nil }
