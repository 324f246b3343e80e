// Package intent holds the expiry policy shared by task requests and task
// claims. Both kinds age out the same way; there is no background sweeper,
// callers apply the policy lazily on every read.
package intent

import "time"

// TTL is how long a request or claim stays active after creation.
const TTL = 24 * time.Hour

// Expirable is the shared capability of requests and claims.
type Expirable interface {
	Created() time.Time
	IsExpired() bool
}

// Stale reports whether an intent created at the given time has aged out.
// An intent created exactly TTL ago is still active.
func Stale(createdAt, now time.Time) bool {
	return createdAt.Add(TTL).Before(now)
}

// Cutoff returns the creation time before which intents are stale at now.
func Cutoff(now time.Time) time.Time {
	return now.Add(-TTL)
}

// Sweep filters a batch of intents down to the surviving subset. Rows
// already flagged expired are dropped regardless of age.
func Sweep[T Expirable](items []T, now time.Time) []T {
	var alive []T
	for _, it := range items {
		if it.IsExpired() || Stale(it.Created(), now) {
			continue
		}
		alive = append(alive, it)
	}
	return alive
}
