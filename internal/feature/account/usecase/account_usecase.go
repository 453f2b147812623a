// Package usecase はaccountフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"account_backend/internal/feature/account/domain"
	"account_backend/internal/feature/account/domain/entity"
)

// dummyHash はアカウントが存在しない場合の比較用ハッシュです。
// 存在の有無でログインの所要時間が変わらないようにします。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserRepository はアカウントストアを抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
// 実装は該当する場合に domain.ErrAccountNotFound / domain.ErrAccountExists を返します。
type UserRepository interface {
	// Create は新しいユーザーを保存し、IDを設定します。
	Create(ctx context.Context, user *entity.User) error

	// FindByID はIDでユーザーを取得します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// FindByUsername はユーザー名でユーザーを取得します。
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// FindByEmailOrUsername はメールアドレスかユーザー名のどちらかが一致するユーザーを取得します。
	FindByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error)

	// Update は changes の非nilフィールドを反映し、保存後の値を返します。
	// changes.Password はハッシュ済みであること。
	Update(ctx context.Context, id uint, changes entity.ProfileChanges) (*entity.User, error)

	// ListSummaries は全アカウントのユーザー名を返します。
	ListSummaries(ctx context.Context) ([]entity.UserSummary, error)
}

// PasswordHasher はパスワードのハッシュ化と照合を行います。
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify は不一致なら (false, nil)、ハッシュが壊れている場合のみエラーを返します。
	Verify(password, hash string) (bool, error)
}

// TokenService はアクセストークンの発行と検証を行います。
type TokenService interface {
	Issue(id entity.Identity) (string, error)
	// Verify は失敗時に entity.InvalidIdentity を返します。
	Verify(token string) entity.Identity
}

// BearerExtractor はAuthorizationヘッダーの値からトークンを取り出します。
type BearerExtractor func(header string) (string, bool)

// LoginLimiter は同一キーへの連続したログイン試行を制限します。
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// LoginResult はログイン成功時の結果です。
type LoginResult struct {
	UserID uint
	Token  string
}

// AccountUsecase は登録・ログイン・プロフィール操作をまとめます。
// リクエストごとの状態は持たず、依存は生成時に固定されます。
type AccountUsecase struct {
	users   UserRepository
	hasher  PasswordHasher
	tokens  TokenService
	bearer  BearerExtractor
	limiter LoginLimiter
}

// NewAccountUsecase はAccountUsecaseの新しいインスタンスを生成します。
func NewAccountUsecase(users UserRepository, hasher PasswordHasher, tokens TokenService,
	bearer BearerExtractor, limiter LoginLimiter) *AccountUsecase {
	return &AccountUsecase{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		bearer:  bearer,
		limiter: limiter,
	}
}

// Register は入力を検証し、管理者でないアカウントを作成してIDを返します。
// 事前の検索は明らかな重複を早めに弾くだけで、同時登録はストアのユニークインデックスで決まり
// その場合も domain.ErrAccountExists になります。
func (u *AccountUsecase) Register(ctx context.Context, email, username, password string) (uint, error) {
	if err := validateRegistration(email, username, password); err != nil {
		return 0, err
	}

	existing, err := u.users.FindByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil && existing != nil:
		return 0, domain.ErrAccountExists
	case err != nil && !errors.Is(err, domain.ErrAccountNotFound):
		return 0, u.storeFailure(ctx, "unable to verify user", err)
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("cannot add user: %w", err)
	}

	user := &entity.User{
		Email:    email,
		Username: username,
		Password: hashed,
		IsAdmin:  false,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return 0, domain.ErrAccountExists
		}
		return 0, u.storeFailure(ctx, "cannot add user", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user.ID, nil
}

// Login はユーザー名とパスワードで認証し、署名済みトークンを返します。
func (u *AccountUsecase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrMissingParameter
	}

	allowed, err := u.limiter.Allow(ctx, username)
	if err != nil {
		// リミッター障害で全員がログインできなくならないよう、エラー時は許可する
		slog.WarnContext(ctx, "login limiter unavailable", "error", err)
	} else if !allowed {
		return nil, domain.ErrTooManyAttempts
	}

	user, err := u.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			_, _ = u.hasher.Verify(password, dummyHash)
			return nil, domain.ErrAccountNotFound
		}
		return nil, u.storeFailure(ctx, "unable to verify user", err)
	}

	ok, err := u.hasher.Verify(password, user.Password)
	if err != nil {
		slog.ErrorContext(ctx, "stored credential is corrupt", "user_id", user.ID, "error", err)
		return nil, domain.ErrCorruptCredential.Wrap(err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := u.tokens.Issue(entity.Identity{UserID: user.ID, IsAdmin: user.IsAdmin})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := u.limiter.Reset(ctx, username); err != nil {
		slog.WarnContext(ctx, "failed to reset login limiter", "error", err)
	}

	return &LoginResult{UserID: user.ID, Token: token}, nil
}

// GetProfile は呼び出し元自身のプロフィールを返します。
func (u *AccountUsecase) GetProfile(ctx context.Context, authHeader string) (entity.Profile, error) {
	id, err := u.identify(authHeader)
	if err != nil {
		return entity.Profile{}, err
	}

	user, err := u.findByID(ctx, id.UserID)
	if err != nil {
		return entity.Profile{}, err
	}
	return user.Profile(), nil
}

// UpdateProfile は許可されたフィールドの変更を呼び出し元のアカウントに反映します。
// 指定された各フィールドは登録時と同じルールを満たす必要があります。
func (u *AccountUsecase) UpdateProfile(ctx context.Context, authHeader string, changes entity.ProfileChanges) (entity.Profile, error) {
	id, err := u.identify(authHeader)
	if err != nil {
		return entity.Profile{}, err
	}

	if changes.Username != nil {
		if err := validateUsername(*changes.Username); err != nil {
			return entity.Profile{}, err
		}
	}
	if changes.Email != nil {
		if err := validateEmail(*changes.Email); err != nil {
			return entity.Profile{}, err
		}
	}
	if changes.Password != nil {
		if err := validatePassword(*changes.Password); err != nil {
			return entity.Profile{}, err
		}
	}

	user, err := u.findByID(ctx, id.UserID)
	if err != nil {
		return entity.Profile{}, err
	}
	if changes.IsEmpty() {
		return user.Profile(), nil
	}

	if changes.Password != nil {
		hashed, err := u.hasher.Hash(*changes.Password)
		if err != nil {
			return entity.Profile{}, fmt.Errorf("cannot update user: %w", err)
		}
		changes.Password = &hashed
	}

	updated, err := u.users.Update(ctx, user.ID, changes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountExists):
			return entity.Profile{}, domain.ErrAccountExists
		case errors.Is(err, domain.ErrAccountNotFound):
			return entity.Profile{}, domain.ErrAccountNotFound
		}
		return entity.Profile{}, u.storeFailure(ctx, "cannot update user", err)
	}
	return updated.Profile(), nil
}

// ListUsers は全アカウントのユーザー名を返します。
func (u *AccountUsecase) ListUsers(ctx context.Context) ([]entity.UserSummary, error) {
	users, err := u.users.ListSummaries(ctx)
	if err != nil {
		return nil, u.storeFailure(ctx, "cannot fetch users", err)
	}
	return users, nil
}

// identify は authHeader のBearerトークンを検証します。
// 欠落・不正形式・改ざん・期限切れはすべて domain.ErrUnauthorized になります。
func (u *AccountUsecase) identify(authHeader string) (entity.Identity, error) {
	token, ok := u.bearer(authHeader)
	if !ok {
		return entity.InvalidIdentity, domain.ErrUnauthorized
	}
	id := u.tokens.Verify(token)
	if !id.IsValid() {
		return entity.InvalidIdentity, domain.ErrUnauthorized
	}
	return id, nil
}

func (u *AccountUsecase) findByID(ctx context.Context, id uint) (*entity.User, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, u.storeFailure(ctx, "cannot fetch user", err)
	}
	return user, nil
}

// storeFailure はストアのエラーをログに残し、汎用の StoreUnavailable を返します。
func (u *AccountUsecase) storeFailure(ctx context.Context, msg string, err error) error {
	slog.ErrorContext(ctx, msg, "error", err)
	return domain.ErrStoreUnavailable.Wrap(err)
}
