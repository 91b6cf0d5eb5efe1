// Package repository contains the MySQL data access layer for users,
// sessions and items.  Each repository works on a *sql.DB and reports
// missing rows and constraint violations through the sentinel errors below
// so that the service layer never has to inspect driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrEmailExists is returned when inserting a user violates the
	// unique index on users.email.
	ErrEmailExists = errors.New("email already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound is returned when a token matches no unexpired
	// session.  Expired and missing sessions are indistinguishable.
	ErrSessionNotFound = errors.New("session not found")
	// ErrItemNotFound is returned when an item id matches no row.
	ErrItemNotFound = errors.New("item not found")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique-constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
