package cachekit

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidArgument marks bad keys, expirations or options. Never retried.
	ErrInvalidArgument = errors.New("cachekit: invalid argument")

	// ErrNotSupported marks operations the active provider cannot serve.
	ErrNotSupported = errors.New("cachekit: operation not supported")

	// ErrProvisioning marks a backing store that is not ready for use,
	// e.g. a missing cache table.
	ErrProvisioning = errors.New("cachekit: provisioning failure")
)

// NotSupportedError names the capability a provider lacks and the provider
// that does implement it.
type NotSupportedError struct {
	Provider   string
	Capability string
	Suggested  string
}

func (e *NotSupportedError) Error() string {
	if e.Suggested == "" {
		return fmt.Sprintf("%s provider does not support %s", e.Provider, e.Capability)
	}
	return fmt.Sprintf("%s provider does not support %s; use the %s provider instead",
		e.Provider, e.Capability, e.Suggested)
}

func (e *NotSupportedError) Is(target error) bool { return target == ErrNotSupported }

// InvalidArgument returns an error marked ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidArgument)
}

func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

func IsNotSupported(err error) bool { return errors.Is(err, ErrNotSupported) }
