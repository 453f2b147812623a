package adapters

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// pgUniqueViolation はPostgreSQLの unique_violation を表すSQLSTATEです。
const pgUniqueViolation = "23505"

// isUniqueConstraintViolation はユニークインデックス違反かどうかを判定します。
// gorm.ErrDuplicatedKey はTranslateError有効時にしか返らないため、ドライバー固有の形式も確認します。
func isUniqueConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}

	// SQLite: "UNIQUE constraint failed: users.email"
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
