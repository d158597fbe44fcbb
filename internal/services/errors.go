package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteUniqueFragment = "unique constraint failed"
)

// isUniqueConstraintError reports whether err is a uniqueness violation from
// any of the supported drivers. Conversation creation relies on this to turn
// a concurrent duplicate insert into a re-fetch of the winning row.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	// The sqlite driver surfaces constraint failures as plain text.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, sqliteUniqueFragment) ||
		strings.Contains(msg, "duplicate key")
}
