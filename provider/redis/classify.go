package redis

import (
	"context"
	"net"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Server replies that fail the same way on every attempt.
var permanentReplies = []string{
	"WRONGTYPE",
	"NOAUTH",
	"NOPERM",
	"WRONGPASS",
	"EXECABORT",
	"ERR value is not an integer",
	"ERR syntax error",
	"ERR wrong number of arguments",
}

// IsTransient classifies Redis failures for the retry policy: server error
// replies and timeouts are transient. Misses, cancellations, connection
// refusals and deterministic replies are not.
func IsTransient(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, goredis.Nil),
		errors.Is(err, goredis.ErrClosed),
		errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	var re goredis.Error
	if errors.As(err, &re) {
		msg := re.Error()
		for _, p := range permanentReplies {
			if strings.HasPrefix(msg, p) {
				return false
			}
		}
		return true
	}
	return false
}
