package usecase

import (
	"context"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
)

// FanOut 依序將事件送給多個 EventSink
type FanOut []EventSink

// Record implements EventSink.
func (f FanOut) Record(ctx context.Context, event domain.Event) {
	for _, sink := range f {
		if sink != nil {
			sink.Record(ctx, event)
		}
	}
}

// NopEventSink 丟棄所有事件
type NopEventSink struct{}

// Record implements EventSink.
func (NopEventSink) Record(context.Context, domain.Event) {}

var (
	_ EventSink = FanOut(nil)
	_ EventSink = NopEventSink{}
)
