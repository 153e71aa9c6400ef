package database

import (
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

// UniqueViolation reports whether err is a unique constraint violation and,
// when the driver exposes it, which column collided.
func UniqueViolation(err error) (column string, ok bool) {
	if err == nil {
		return "", false
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return sqliteColumn(sqliteErr.Error()), true
		}
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		if column := pgDetailColumn(pgErr.Detail); column != "" {
			return column, true
		}
		return pgConstraintColumn(pgErr.TableName, pgErr.ConstraintName), true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}

	message := err.Error()
	if strings.Contains(message, "UNIQUE constraint failed") {
		return sqliteColumn(message), true
	}
	if strings.Contains(message, "duplicate key value") {
		return "", true
	}
	return "", false
}

// IsMissingTable reports whether err means the schema has not been migrated.
func IsMissingTable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedTable
	}
	return strings.Contains(err.Error(), "no such table")
}

// IsConnectionError reports whether err comes from an unreachable or closed
// database connection.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "connection refused") ||
		strings.Contains(message, "database is closed") ||
		strings.Contains(message, "connection reset")
}

// sqliteColumn extracts the column from "UNIQUE constraint failed: leads.phone".
func sqliteColumn(message string) string {
	const marker = "constraint failed: "
	i := strings.LastIndex(message, marker)
	if i < 0 {
		return ""
	}
	rest := message[i+len(marker):]
	if end := strings.IndexAny(rest, " ,("); end >= 0 {
		rest = rest[:end]
	}
	if dot := strings.LastIndex(rest, "."); dot >= 0 {
		rest = rest[dot+1:]
	}
	return rest
}

// pgDetailColumn extracts the column from "Key (phone)=(+15551234567) already exists."
func pgDetailColumn(detail string) string {
	start := strings.Index(detail, "Key (")
	if start < 0 {
		return ""
	}
	rest := detail[start+len("Key ("):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// pgConstraintColumn maps idx_<table>_<column> back to the column name.
func pgConstraintColumn(table, constraint string) string {
	if table != "" {
		if column, ok := strings.CutPrefix(constraint, "idx_"+table+"_"); ok {
			return column
		}
	}
	return constraint
}
