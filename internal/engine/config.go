package engine

import "time"

// DefaultOraclePolicy returns the retry policy for oracle requests: the
// identical call is repeated exactly once after any failure.
func DefaultOraclePolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   1,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}
