// Package repository holds the SQL data access layer. Repositories speak
// plain database/sql against MySQL or SQLite and report the few storage
// outcomes callers branch on through the sentinels below; everything else
// is returned wrapped with context.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup or a targeted update matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique constraint.
// For join rows (reactions, subscriptions) this means a concurrent writer
// created the same pair first.
var ErrDuplicate = errors.New("duplicate")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isUniqueViolation recognises unique/primary-key violations from either
// supported driver.
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code != sqlite3.ErrConstraint {
			return false
		}
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
