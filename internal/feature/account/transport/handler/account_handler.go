// Package handler はaccountフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"account_backend/internal/feature/account/domain"
	"account_backend/internal/feature/account/domain/entity"
	"account_backend/internal/feature/account/transport/http/dto"
	"account_backend/internal/feature/account/usecase"
	jwtmw "account_backend/internal/platform/jwt"
)

// AccountUsecase はハンドラーが利用するアカウント操作を定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AccountUsecase interface {
	Register(ctx context.Context, email, username, password string) (uint, error)
	Login(ctx context.Context, username, password string) (*usecase.LoginResult, error)
	GetProfile(ctx context.Context, authHeader string) (entity.Profile, error)
	UpdateProfile(ctx context.Context, authHeader string, changes entity.ProfileChanges) (entity.Profile, error)
	ListUsers(ctx context.Context) ([]entity.UserSummary, error)
}

// AccountHandler は /api/users 配下のリクエストを処理します。
// 既存クライアントとの互換のため、成功時はすべて201を返します。
type AccountHandler struct {
	accounts AccountUsecase
}

// NewAccountHandler はAccountHandlerの新しいインスタンスを生成します。
func NewAccountHandler(accounts AccountUsecase) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Welcome は GET / のトップページを返します。
func (h *AccountHandler) Welcome(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<h1>Welcome</h1>"))
}

// Register はユーザー登録APIエンドポイントを処理します。
// - JSONまたはフォーム形式のボディをRegisterReqにバインド
// - バインド失敗時は400（MissingParameter）を返却
// - 成功時は201を返却
func (h *AccountHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBind(&req); err != nil {
		slog.Warn("register request malformed", "error", err, "remote_addr", c.ClientIP())
		writeError(c, domain.ErrMissingParameter)
		return
	}

	id, err := h.accounts.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		slog.Warn("register failed", "code", domain.KindOf(err), "username", req.Username, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.RegisterRes{UserID: id})
}

// Login はログインAPIエンドポイントを処理します。
// - 認証成功時はJWTトークン付きで201を返却
func (h *AccountHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBind(&req); err != nil {
		slog.Warn("login request malformed", "error", err, "remote_addr", c.ClientIP())
		writeError(c, domain.ErrMissingParameter)
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		slog.Warn("login failed", "code", domain.KindOf(err), "username", req.Username, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	slog.Info("user login successful", "user_id", res.UserID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.LoginRes{UserID: res.UserID, Token: res.Token})
}

// GetProfile は GET /api/users/profile/ を処理します。
func (h *AccountHandler) GetProfile(c *gin.Context) {
	profile, err := h.accounts.GetProfile(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ProfileResFromEntity(profile))
}

// UpdateProfile は PUT /api/users/profile/ を処理します。
// ルーターでは jwtmw.AuthRequired の後に置くため、トークン不正はボディを読む前に弾かれます。
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	caller := jwtmw.IdentityFrom(c)

	var req dto.UpdateProfileReq
	if err := c.ShouldBind(&req); err != nil {
		slog.Warn("update profile request malformed", "error", err, "user_id", caller.UserID, "remote_addr", c.ClientIP())
		writeError(c, domain.ErrMissingParameter)
		return
	}

	changes := entity.ProfileChanges{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	}
	profile, err := h.accounts.UpdateProfile(c.Request.Context(), c.GetHeader("Authorization"), changes)
	if err != nil {
		slog.Warn("update profile failed", "code", domain.KindOf(err), "user_id", caller.UserID, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	slog.Info("profile updated", "user_id", profile.ID)
	c.JSON(http.StatusCreated, dto.ProfileResFromEntity(profile))
}

// ListUsers は GET /api/users/ を処理します。
func (h *AccountHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if caller := jwtmw.IdentityFrom(c); caller.IsValid() {
		slog.Debug("user list requested", "user_id", caller.UserID, "count", len(users))
	}
	c.JSON(http.StatusCreated, dto.UserItemsFromEntities(users))
}

// writeError はエラー種別に応じたステータスと公開用メッセージのみを返します。
func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	c.JSON(kind.HTTPStatus(), dto.ErrorRes{Error: domain.PublicMessage(err), Code: string(kind)})
}
