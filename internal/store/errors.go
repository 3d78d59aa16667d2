package store

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"buildmatrix/internal/apperrors"
)

type violation int

const (
	violationNone violation = iota
	violationUnique
	violationForeignKey
	violationCheck
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
	mysqlCheckConstraint  = 3819
	mysqlRowIsReferenced2 = 1217
	mysqlNoReferencedRow2 = 1216
)

func classify(err error) violation {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return violationUnique
		case mysqlRowIsReferenced, mysqlNoReferencedRow, mysqlRowIsReferenced2, mysqlNoReferencedRow2:
			return violationForeignKey
		case mysqlCheckConstraint:
			return violationCheck
		}
		return violationNone
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return violationUnique
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return violationForeignKey
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return violationCheck
		}
		// Connections without extended result codes only report the
		// primary code; the message names the constraint kind.
		if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			msg := se.Error()
			switch {
			case strings.Contains(msg, "UNIQUE"):
				return violationUnique
			case strings.Contains(msg, "FOREIGN KEY"):
				return violationForeignKey
			case strings.Contains(msg, "CHECK"):
				return violationCheck
			}
		}
	}
	return violationNone
}

func notFound(resource string) error {
	return apperrors.NotFound(resource)
}

// writeError maps a failed INSERT or UPDATE. ref names what a dangling
// foreign key points at, e.g. "Inventory item".
func writeError(err error, ref string) error {
	switch classify(err) {
	case violationUnique:
		return apperrors.Conflict("Email already exists").WithCause(err)
	case violationForeignKey:
		return apperrors.NotFound(ref).WithCause(err)
	case violationCheck:
		return apperrors.Validation("Value out of range").WithCause(err)
	}
	return apperrors.Internal(err)
}

// readError maps a failed single-row SELECT.
func readError(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(resource)
	}
	return apperrors.Internal(err)
}

// deleteError maps a failed DELETE. A foreign key violation here means other
// rows still reference the one being removed.
func deleteError(err error, resource string) error {
	if classify(err) == violationForeignKey {
		return apperrors.Conflict(resource + " is still referenced and cannot be deleted").WithCause(err)
	}
	return apperrors.Internal(err)
}
