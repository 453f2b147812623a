// Package router はginエンジンとルーティングテーブルを組み立てます。
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	accounthandler "account_backend/internal/feature/account/transport/handler"
	platformhandler "account_backend/internal/platform/http/handler"
	jwtmw "account_backend/internal/platform/jwt"
	"account_backend/internal/platform/logging"
)

// Options はルーターの任意機能を制御します。
type Options struct {
	Logger *slog.Logger

	// AllowOrigins を指定するとCORSを有効にします。"*" はすべてのオリジンを許可します。
	AllowOrigins []string

	// ProtectUserList が true の場合、GET /api/users/ にもBearerトークンを要求します。
	ProtectUserList bool
}

// NewRouter はアカウントAPIとヘルスチェックを提供するginエンジンを返します。
func NewRouter(account *accounthandler.AccountHandler, readiness *platformhandler.Readiness,
	verifier jwtmw.Verifier, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(logging.Recovery(logger), logging.RequestID(), logging.AccessLog(logger))
	if len(opts.AllowOrigins) > 0 {
		r.Use(newCORS(opts.AllowOrigins))
	}

	// 導通確認用
	r.GET("/healthz", platformhandler.Health)
	r.HEAD("/healthz", platformhandler.Health)
	r.GET("/readyz", readiness.Handle)

	r.GET("/", account.Welcome)

	users := r.Group("/api/users")
	{
		// 新規ユーザー登録
		handleBoth(users, http.MethodPost, "/register", account.Register)
		// ログイン（JWT 発行）
		handleBoth(users, http.MethodPost, "/login", account.Login)

		// 認証必須のルート
		// トークン不正はボディを読む前にAuthRequiredで400（Unauthorized）になる
		auth := jwtmw.AuthRequired(verifier)
		handleBoth(users, http.MethodGet, "/profile", auth, account.GetProfile)
		handleBoth(users, http.MethodPut, "/profile", auth, account.UpdateProfile)

		if opts.ProtectUserList {
			handleBoth(users, http.MethodGet, "", auth, account.ListUsers)
		} else {
			handleBoth(users, http.MethodGet, "", account.ListUsers)
		}
	}

	return r
}

// handleBoth は末尾スラッシュあり・なしの両方でルートを登録します。
// リダイレクトさせずにどちらのパスでも同じハンドラーが応答します。
func handleBoth(g *gin.RouterGroup, method, path string, handlers ...gin.HandlerFunc) {
	g.Handle(method, path+"/", handlers...)
	g.Handle(method, path, handlers...)
}

func newCORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", logging.HeaderXRequestID},
		ExposeHeaders: []string{logging.HeaderXRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
