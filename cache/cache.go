// Package cache provides the small get/set-with-TTL abstraction used for
// exchange rates and provider OAuth tokens.
package cache

import "time"

type Store interface {
	Get(key string) (string, bool)
	// Set stores value for ttl. A non-positive ttl counts as already
	// expired and removes any existing entry.
	Set(key, value string, ttl time.Duration)
	Delete(key string)
}
