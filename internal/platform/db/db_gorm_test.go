package db

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"account_backend/internal/feature/account/domain/entity"
)

// TestBuildDSN_Postgres はPostgreSQL接続用のDSN文字列が正しく生成されることを検証します。
func TestBuildDSN_Postgres(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Driver:   DriverPostgres,
		User:     "testuser",
		Password: "testpass",
		Name:     "testdb",
		Host:     "localhost",
		Port:     "5432",
		SSLMode:  "require",
	}

	dsn := BuildDSN(cfg)

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require TimeZone=UTC"
	if dsn != expected {
		t.Errorf("expected DSN %q, got %q", expected, dsn)
	}
}

// TestBuildDSN_PostgresDefaultSSLMode はsslModeが未設定の場合disableになることを検証します。
func TestBuildDSN_PostgresDefaultSSLMode(t *testing.T) {
	t.Parallel()

	dsn := BuildDSN(Config{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n"})

	assert.Contains(t, dsn, "sslmode=disable")
}

// TestBuildDSN_SQLite はSQLiteではファイルパスがそのままDSNになることを検証します。
func TestBuildDSN_SQLite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"explicit path", "/var/lib/account/account.db", "/var/lib/account/account.db"},
		{"in memory", ":memory:", ":memory:"},
		{"default path", "", defaultSQLitePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildDSN(Config{Driver: DriverSQLite, Path: tt.path}))
		})
	}
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	opener := func(dsn string) (*gorm.DB, error) {
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 5*time.Second, opener)

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	// Not parallel because this test takes time due to retry sleeps

	mockDB := &gorm.DB{}
	attemptCount := 0

	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		if attemptCount < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	}

	// Allows for 2 retries (retry interval is 3 seconds)
	db, err := ConnectWithRetry("test-dsn", 10*time.Second, opener)

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 3, attemptCount)
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後にエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	attemptCount := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		return nil, errors.New("connection refused")
	}

	_, err := ConnectWithRetry("test-dsn", 100*time.Millisecond, opener)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, attemptCount)
}

// TestOpen_SQLiteMigrates はSQLiteで接続しusersテーブルが作成されることを検証します。
func TestOpen_SQLiteMigrates(t *testing.T) {
	t.Parallel()

	db, err := Open(Config{Driver: DriverSQLite, Path: ":memory:", RunMigrations: true}, slog.Default(), false)
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&entity.User{}))
	assert.True(t, db.Migrator().HasIndex(&entity.User{}, "Email"))
	assert.True(t, db.Migrator().HasIndex(&entity.User{}, "Username"))
}

// TestOpen_TranslatesDuplicateKey はTranslateError有効時に重複キーがgorm.ErrDuplicatedKeyになることを検証します。
func TestOpen_TranslatesDuplicateKey(t *testing.T) {
	t.Parallel()

	db, err := Open(Config{Driver: DriverSQLite, Path: ":memory:", RunMigrations: true}, slog.Default(), false)
	require.NoError(t, err)

	require.NoError(t, db.Create(&entity.User{Email: "a@b.com", Username: "alice123", Password: "h"}).Error)
	err = db.Create(&entity.User{Email: "a@b.com", Username: "other123", Password: "h"}).Error

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

// TestOpen_UnsupportedDriver は未対応のドライバー指定でエラーになることを検証します。
func TestOpen_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{Driver: "mysql"}, slog.Default(), false)

	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestGormSlogLogger_Trace(t *testing.T) {
	t.Parallel()

	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	tests := []struct {
		name    string
		debug   bool
		begin   time.Time
		err     error
		wantMsg string
	}{
		{"record not found suppressed", false, time.Now(), gorm.ErrRecordNotFound, ""},
		{"error logged", false, time.Now(), errors.New("syntax error"), "gorm query failed"},
		{"slow query warned", false, time.Now().Add(-time.Second), nil, "gorm slow query"},
		{"fast query hidden at warn", false, time.Now(), nil, ""},
		{"fast query shown in debug", true, time.Now(), nil, "gorm query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := newGormSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), tt.debug)

			l.Trace(context.Background(), tt.begin, sqlFn, tt.err)

			if tt.wantMsg == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), `msg="`+tt.wantMsg+`"`)
		})
	}
}

func TestGormSlogLogger_LogModeSilent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newGormSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)), true).LogMode(logger.Silent)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	l.Error(context.Background(), "boom %d", 1)

	assert.Empty(t, buf.String())
}
