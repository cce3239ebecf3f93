package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"net"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQL Server error numbers that indicate a transient condition: deadlock
// victim, client timeout, Azure SQL throttling, failover and connection drops.
var mssqlTransient = map[int32]struct{}{
	-2:    {},
	20:    {},
	64:    {},
	233:   {},
	1205:  {},
	4060:  {},
	4221:  {},
	10053: {},
	10054: {},
	10060: {},
	10928: {},
	10929: {},
	40143: {},
	40197: {},
	40501: {},
	40540: {},
	40613: {},
	49918: {},
	49919: {},
	49920: {},
}

// IsTransient classifies relational failures for the retry policy.
// Connection-level and engine-reported transient errors are retried;
// constraint, syntax and conversion errors are not.
func IsTransient(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, sql.ErrNoRows),
		errors.Is(err, sql.ErrTxDone),
		errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}

	var me mssql.Error
	if errors.As(err, &me) {
		_, ok := mssqlTransient[me.SQLErrorNumber()]
		return ok
	}

	var pe *pq.Error
	if errors.As(err, &pe) {
		switch pe.Code.Class() {
		case "08", "40", "53":
			return true
		case "57":
			return pe.Code != "57014" // query_canceled is a caller decision
		}
		return pe.Code == "55P03" // lock_not_available
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}
