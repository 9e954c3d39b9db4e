package database

import (
	stderrors "errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var retryableMessages = []string{
	"database is locked",
	"database table is locked",
	"cannot start a transaction within a transaction",
	"bad connection",
	"checkpoint in progress",
}

// IsErrRetryable reports whether err is transient SQLite contention.
func IsErrRetryable(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return true
		}
	}
	var errNo sqlite3.ErrNo
	if stderrors.As(err, &errNo) {
		if errNo == sqlite3.ErrBusy || errNo == sqlite3.ErrLocked {
			return true
		}
	}

	msg := err.Error()
	for _, m := range retryableMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
