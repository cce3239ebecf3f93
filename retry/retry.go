// Package retry runs cache operations under a bounded, fixed-delay retry
// policy built on cenkalti/backoff. Which errors are worth retrying is
// decided by a classifier that each provider injects.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/cachekit"
)

// ErrExhausted marks the final error of an operation that kept failing with
// retryable errors. errors.Is still matches the underlying cause.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Classifier reports whether err is transient.
type Classifier func(err error) bool

// Policy is immutable after New and safe for concurrent use.
type Policy struct {
	retries   int
	delay     time.Duration
	retryable Classifier
	hooks     cachekit.Hooks
	log       cachekit.Logger
}

type Option func(*Policy)

// WithClassifier sets the transient error predicate. Without one nothing is retried.
func WithClassifier(c Classifier) Option { return func(p *Policy) { p.retryable = c } }

func WithHooks(h cachekit.Hooks) Option { return func(p *Policy) { p.hooks = cachekit.HooksOrNop(h) } }

func WithLogger(l cachekit.Logger) Option { return func(p *Policy) { p.log = cachekit.LoggerOrNop(l) } }

// WithDelayUnit scales the configured delay. Tests use it to run with
// millisecond delays; production code keeps the default of one second.
func WithDelayUnit(unit time.Duration) Option {
	return func(p *Policy) {
		if unit > 0 {
			p.delay = time.Duration(p.delay/time.Second) * unit
		}
	}
}

// New builds a policy that retries up to retries times, delaySeconds apart.
// Both must be positive.
func New(retries, delaySeconds int, opts ...Option) (*Policy, error) {
	if retries <= 0 {
		return nil, cachekit.InvalidArgument("retry: retries must be positive, got %d", retries)
	}
	if delaySeconds <= 0 {
		return nil, cachekit.InvalidArgument("retry: delay must be positive, got %d seconds", delaySeconds)
	}
	p := &Policy{
		retries:   retries,
		delay:     time.Duration(delaySeconds) * time.Second,
		retryable: func(error) bool { return false },
		hooks:     cachekit.NopHooks{},
		log:       cachekit.NopLogger{},
	}
	for _, o := range opts {
		o(p)
	}
	if p.retryable == nil {
		p.retryable = func(error) bool { return false }
	}
	return p, nil
}

// FromOptions builds a policy from configuration. See RetryOptions.Effective.
func FromOptions(o cachekit.RetryOptions, opts ...Option) (*Policy, error) {
	retries, delay := o.Effective()
	return New(retries, delay, opts...)
}

func (p *Policy) Retries() int         { return p.retries }
func (p *Policy) Delay() time.Duration { return p.delay }

// Do runs fn and retries it while it fails with errors the classifier accepts.
// op labels the operation, description carries its arguments; both reach the
// RetryAttempt hook. Once ctx is done nothing is retried and ctx.Err() is
// returned.
func Do[T any](ctx context.Context, p *Policy, op, description string, fn func(context.Context) (T, error)) (T, error) {
	var (
		zero      T
		attempt   int
		permanent bool
	)
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.delay), uint64(p.retries)),
		ctx)

	v, err := backoff.RetryNotifyWithData(func() (T, error) {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !p.shouldRetry(err) {
			permanent = true
			return zero, backoff.Permanent(err)
		}
		return zero, err
	}, b, func(err error, _ time.Duration) {
		attempt++
		p.hooks.RetryAttempt(attempt, op, description, err)
		p.log.Debug("retrying cache operation", cachekit.Fields{
			"attempt":     attempt,
			"op":          op,
			"description": description,
			"err":         err.Error(),
		})
	})
	switch {
	case err == nil:
		return v, nil
	case ctx.Err() != nil:
		return zero, ctx.Err()
	case permanent:
		return zero, err
	}
	return zero, errors.Mark(
		errors.Wrapf(err, "%s failed after %d retries", op, p.retries),
		ErrExhausted)
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p *Policy, op, description string, fn func(context.Context) error) error {
	_, err := Do(ctx, p, op, description, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (p *Policy) shouldRetry(err error) bool {
	switch {
	case errors.Is(err, cachekit.ErrInvalidArgument),
		errors.Is(err, cachekit.ErrNotSupported),
		errors.Is(err, context.Canceled):
		return false
	}
	return p.retryable(err)
}
