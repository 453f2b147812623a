// Package adapters はaccountフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"account_backend/internal/feature/account/domain"
	"account_backend/internal/feature/account/domain/entity"
	"account_backend/internal/feature/account/usecase"
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
// PostgreSQLとSQLiteの両方で動作します。
type userGorm struct {
	db *gorm.DB
}

var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserRepository は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタです。
func NewUserRepository(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーをデータベースに追加し、IDを設定します。
// メールアドレスまたはユーザー名が重複する場合、domain.ErrAccountExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domain.ErrAccountExists.Wrap(err)
		}
		return errors.Wrap(err, "create user")
	}
	return nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、domain.ErrAccountNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return r.first(ctx, "find user by id", "id = ?", id)
}

// FindByUsername はユーザー名でユーザーを取得します。
// ユーザーが存在しない場合、domain.ErrAccountNotFoundを返します。
func (r *userGorm) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.first(ctx, "find user by username", "username = ?", username)
}

// FindByEmailOrUsername はメールアドレスかユーザー名が一致する最初のユーザーを返します。
func (r *userGorm) FindByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error) {
	return r.first(ctx, "find user by email or username", "email = ? OR username = ?", email, username)
}

// Update は changes に含まれる許可カラムのみを更新し、更新後の行を読み直します。
func (r *userGorm) Update(ctx context.Context, id uint, changes entity.ProfileChanges) (*entity.User, error) {
	cols := map[string]any{}
	if changes.Email != nil {
		cols["email"] = *changes.Email
	}
	if changes.Username != nil {
		cols["username"] = *changes.Username
	}
	if changes.Password != nil {
		cols["password"] = *changes.Password
	}
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}

	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Updates(cols)
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return nil, domain.ErrAccountExists.Wrap(result.Error)
		}
		return nil, errors.Wrap(result.Error, "update user")
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrAccountNotFound
	}
	return r.FindByID(ctx, id)
}

// ListSummaries は全ユーザーのユーザー名をID順で返します。
func (r *userGorm) ListSummaries(ctx context.Context) ([]entity.UserSummary, error) {
	var usernames []string
	if err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Order("id ASC").
		Pluck("username", &usernames).Error; err != nil {
		return nil, errors.Wrap(err, "list users")
	}

	summaries := make([]entity.UserSummary, len(usernames))
	for i, name := range usernames {
		summaries[i] = entity.UserSummary{Username: name}
	}
	return summaries, nil
}

func (r *userGorm) first(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, errors.Wrap(err, op)
	}
	return &u, nil
}
