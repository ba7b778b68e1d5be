package ports

import "context"

// Locker provides mutual exclusion per key, such as one chain or one
// order. Lock blocks until the lock is held or ctx is done. The returned
// function releases the lock and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
