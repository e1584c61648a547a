package repository

import "errors"

var (
	// ErrFetchFailure is a genuine news feed failure (network, bad symbol, malformed feed).
	ErrFetchFailure = errors.New("news fetch failed")
	// ErrSummarizeFailure is any failure of the generative model call.
	ErrSummarizeFailure = errors.New("summarize failed")
	// ErrCacheUnavailable is a storage failure of the summary cache.
	ErrCacheUnavailable = errors.New("summary cache unavailable")
	// ErrDeliveryFailure is a failure to hand a digest to the messaging transport.
	ErrDeliveryFailure = errors.New("delivery failed")
	// ErrLockHeld means another run owns the run lock.
	ErrLockHeld = errors.New("run lock held by another process")
)
