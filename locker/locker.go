// Package locker provides per-key mutual exclusion for plate aggregate linking.
package locker

import "context"

// Locker serialises work on a key. Unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
