package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alekspanteli/exchange-rate-hub/internal/provider"
)

// ErrorSlot stores the most recent failure.
type ErrorSlot interface {
	RecordError(ctx context.Context, msg string, at time.Time) error
}

// ErrorNotifier shows a failure to administrators.
type ErrorNotifier interface {
	SetError(ctx context.Context, msg string) error
}

var _ provider.ErrorRecorder = (*FetchErrorRecorder)(nil)

// FetchErrorRecorder writes fetch failures to the last-error slot and the
// admin error notice.
type FetchErrorRecorder struct {
	slot     ErrorSlot
	notifier ErrorNotifier
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewFetchErrorRecorder creates a FetchErrorRecorder. notifier may be nil.
func NewFetchErrorRecorder(slot ErrorSlot, notifier ErrorNotifier, logger *zap.SugaredLogger) *FetchErrorRecorder {
	return &FetchErrorRecorder{slot: slot, notifier: notifier, log: logger, now: time.Now}
}

// RecordFetchError stores err. It still runs when ctx is already canceled.
func (r *FetchErrorRecorder) RecordFetchError(ctx context.Context, err error) {
	ctx = context.WithoutCancel(ctx)

	if e := r.slot.RecordError(ctx, err.Error(), r.now()); e != nil {
		r.log.Errorw("Failed to store last error", "error", e)
	}
	if r.notifier == nil {
		return
	}
	if e := r.notifier.SetError(ctx, provider.NoticeMessage(err)); e != nil {
		r.log.Warnw("Failed to store admin error notice", "error", e)
	}
}
