package service

import (
	"context"
	"time"
)

// ClickGuard decides whether a visit is the first from an IP to a link within
// the dedup window. Repeat visits are still recorded but earn nothing.
type ClickGuard interface {
	FirstVisit(ctx context.Context, linkID, ip string, window time.Duration) (bool, error)
}
