// Package db はアカウントストアが使うgorm接続を開きます。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"account_backend/internal/feature/account/domain/entity"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultConnectTimeout = 60 * time.Second
	retryInterval         = 3 * time.Second
	defaultSQLitePath     = "account.db"
)

// Config はデータベースの接続設定です。
type Config struct {
	Driver         string        `koanf:"driver" validate:"omitempty,oneof=postgres sqlite"`
	Host           string        `koanf:"host"`
	Port           string        `koanf:"port"`
	User           string        `koanf:"user"`
	Password       string        `koanf:"password"`
	Name           string        `koanf:"name"`
	SSLMode        string        `koanf:"sslMode"`
	Path           string        `koanf:"path"`
	RunMigrations  bool          `koanf:"runMigrations"`
	ConnectTimeout time.Duration `koanf:"connectTimeout"`
}

// Opener はDSNからgorm接続を開きます。
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN は cfg.Driver に応じた接続文字列を返します。
// SQLiteの場合はデータベースファイルのパスです。
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverSQLite {
		if cfg.Path == "" {
			return defaultSQLitePath
		}
		return cfg.Path
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslMode)
}

// ConnectWithRetry は成功するかタイムアウトするまで opener を呼び出します。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, errors.Wrapf(err, "DB connect failed after %s", timeout)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open はリトライ付きで接続し、cfg.RunMigrations が有効ならマイグレーションを実行します。
// クエリは logger に出力され、debug では全ステートメントを記録します。
func Open(cfg Config, logger *slog.Logger, debug bool) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         newGormSlogLogger(logger, debug),
	}

	var opener Opener
	switch cfg.Driver {
	case DriverSQLite:
		opener = func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gormCfg)
		}
	case DriverPostgres, "":
		opener = func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormCfg)
		}
	default:
		return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	db, err := ConnectWithRetry(BuildDSN(cfg), timeout, opener)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate はusersテーブルとユニークインデックスを作成・更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.User{}); err != nil {
		return errors.Wrap(err, "failed to migrate")
	}
	return nil
}
