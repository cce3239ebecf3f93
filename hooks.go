package cachekit

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// Providers call them on request paths (retries) and from the sweeper.
type Hooks interface {
	// An operation failed with a retryable error and will run again.
	// attempt is 1-based: the first retry reports 1.
	RetryAttempt(attempt int, op, description string, err error)

	// ExpireKey found the requested TTL already applied and skipped the backend call.
	ExpirySkipped(key string, ttlSeconds int)

	// The relational sweeper removed expired rows.
	SweepCompleted(table string, removed int64)

	// The relational sweeper failed. The error is not propagated anywhere else.
	SweepFailed(table string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) RetryAttempt(int, string, string, error) {}
func (NopHooks) ExpirySkipped(string, int)               {}
func (NopHooks) SweepCompleted(string, int64)            {}
func (NopHooks) SweepFailed(string, error)               {}

// HooksOrNop returns h, or NopHooks when h is nil.
func HooksOrNop(h Hooks) Hooks {
	if h == nil {
		return NopHooks{}
	}
	return h
}
