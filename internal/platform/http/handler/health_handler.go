// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultReadinessTimeout = 2 * time.Second

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// プロセスが応答できることだけを示し、依存先は確認しません。
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Pinger は *sql.DB が満たします。その他のクライアントは PingerFunc で包みます。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc は関数を Pinger に適合させます。
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Readiness は依存先すべてにPingして /readyz に応答します。
type Readiness struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewReadiness は名前付きチェックからReadinessを生成します。nil の Pinger は無視します。
func NewReadiness(checks map[string]Pinger) *Readiness {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &Readiness{checks: active, timeout: defaultReadinessTimeout}
}

// Handle は全チェック成功で200、失敗があれば失敗したチェック名とともに503を返します。
// エラーの詳細はログにのみ出力します。
func (r *Readiness) Handle(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	ctx, cancel := context.WithTimeout(c.Request.Context(), r.timeout)
	defer cancel()

	status := make(map[string]string, len(r.checks))
	ready := true
	for name, p := range r.checks {
		if err := p.PingContext(ctx); err != nil {
			slog.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
			status[name] = "unavailable"
			ready = false
			continue
		}
		status[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": status})
}
