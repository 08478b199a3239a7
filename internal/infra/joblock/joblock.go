package joblock

import (
	"context"
	"time"
)

// Locker hands out short-lived leases so only one instance runs a given
// background sweep at a time. Acquire is non-blocking: a held lease simply
// means the caller skips this cycle.
type Locker interface {
	// Acquire takes the named lease for ttl. It returns a release func when
	// the lease was taken, or ok=false when another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}
