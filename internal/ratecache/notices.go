package ratecache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notice lifetimes.
const (
	SuccessNoticeTTL = 30 * time.Second
	ErrorNoticeTTL   = 300 * time.Second
)

const (
	keySuccessNotice = "notice:admin_success"
	keyErrorNotice   = "notice:admin_error"
)

// Notices holds the admin success and error notices. Each is shown once.
type Notices struct {
	rdb *redis.Client
	log *zap.SugaredLogger
}

// NewNotices creates a Notices store.
func NewNotices(rdb *redis.Client, logger *zap.SugaredLogger) *Notices {
	return &Notices{rdb: rdb, log: logger}
}

// SetSuccess stores the success notice.
func (n *Notices) SetSuccess(ctx context.Context, msg string) error {
	return n.rdb.Set(ctx, keySuccessNotice, msg, SuccessNoticeTTL).Err()
}

// SetError stores the error notice, replacing any earlier one.
func (n *Notices) SetError(ctx context.Context, msg string) error {
	return n.rdb.Set(ctx, keyErrorNotice, msg, ErrorNoticeTTL).Err()
}

// Pop returns and clears the pending notices. Missing notices are empty.
func (n *Notices) Pop(ctx context.Context) (success, failure string) {
	return n.pop(ctx, keySuccessNotice), n.pop(ctx, keyErrorNotice)
}

func (n *Notices) pop(ctx context.Context, key string) string {
	msg, err := n.rdb.GetDel(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			n.log.Warnw("Notice read failed", "key", key, "error", err)
		}
		return ""
	}
	return msg
}
