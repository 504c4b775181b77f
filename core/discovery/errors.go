package discovery

import "errors"

// ErrRateLimited is returned by registry implementations when the upstream
// answered with a too-many-requests response. The discovery service retries
// these with backoff before giving up on the search point.
var ErrRateLimited = errors.New("registry rate limited")

// ErrRegistryUnavailable wraps a registry failure after the retry budget for
// one search point is exhausted. It never aborts the whole discovery call.
var ErrRegistryUnavailable = errors.New("station registry unavailable")
