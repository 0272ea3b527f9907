package sqlite

import (
	"errors"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// constraintKind classifies a driver error. The extended result code is
// preferred; the message prefix is a fallback for drivers that only report
// the primary SQLITE_CONSTRAINT code.
func constraintKind(err error) (int, bool) {
	var serr *moderncsqlite.Error
	if !errors.As(err, &serr) {
		return 0, false
	}
	code := serr.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return 0, false
	}
	if code != sqlite3.SQLITE_CONSTRAINT {
		return code, true
	}
	msg := serr.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return sqlite3.SQLITE_CONSTRAINT_UNIQUE, true
	case strings.Contains(msg, "CHECK constraint failed"):
		return sqlite3.SQLITE_CONSTRAINT_CHECK, true
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, true
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return sqlite3.SQLITE_CONSTRAINT_NOTNULL, true
	}
	return code, true
}

// translate turns a constraint violation into the matching domain error.
// duplicateMsg is used for uniqueness clashes, invalidMsg for the rest.
// Non-constraint errors come back unchanged (nil when err is nil).
func translate(err error, duplicateMsg, invalidMsg string) error {
	if err == nil {
		return nil
	}
	kind, ok := constraintKind(err)
	if !ok {
		return err
	}
	switch kind {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return apperror.Duplicate(duplicateMsg)
	default:
		return apperror.ValidationFailed("", invalidMsg)
	}
}
