package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const clickGuardPrefix = "clickguard:"

// ClickGuard remembers (link, ip) pairs for a window with SET NX EX.
type ClickGuard struct {
	rdb *redis.Client
}

// NewClickGuard returns a guard storing its marks in rdb.
func NewClickGuard(rdb *redis.Client) *ClickGuard {
	return &ClickGuard{rdb: rdb}
}

// FirstVisit reports whether ip has not visited linkID within window, and
// marks the visit.
func (g *ClickGuard) FirstVisit(ctx context.Context, linkID, ip string, window time.Duration) (bool, error) {
	return g.rdb.SetNX(ctx, clickGuardKey(linkID, ip), 1, window).Result()
}

func clickGuardKey(linkID, ip string) string {
	return clickGuardPrefix + linkID + ":" + ip
}
