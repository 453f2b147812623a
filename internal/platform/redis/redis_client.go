// Package redis はログイン制限とreadinessチェックで共有するRedisクライアントを生成します。
package redis

import (
	"context"
	"log/slog"
	"net"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Config はRedisサーバーの接続設定です。Enabled が false の場合クライアントは生成しません。
type Config struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

// Addr は host:port を返します。
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewRedisClient はRedisに接続し、Pingで疎通を確認します。
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	addr := cfg.Addr()

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
