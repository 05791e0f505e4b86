package journal

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-custody-ledger/pkg/wal"
)

// Journal 把帳本事件寫入 WAL，重啟時可由 memory.RecoverState 重放
type Journal struct {
	wal    *wal.WAL
	logger *zap.Logger
	// 寫入失敗次數
	failures atomic.Uint64

	health   StatusSetter
	services []string
}

// StatusSetter 回報服務健康狀態，由 grpc health.Server 實作
type StatusSetter interface {
	SetServingStatus(service string, servingStatus healthpb.HealthCheckResponse_ServingStatus)
}

// Option Journal 的設定選項
type Option func(*Journal)

// WithHealth 第一次寫入失敗時把 services 標記為 NOT_SERVING
// WAL 出現缺口後重啟會無法重放，需要在重啟前由維運處理。
func WithHealth(h StatusSetter, services ...string) Option {
	return func(j *Journal) {
		j.health = h
		j.services = services
	}
}

func NewJournal(w *wal.WAL, logger *zap.Logger, opts ...Option) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &Journal{
		wal:    w,
		logger: logger.Named("journal"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Record 寫入一筆事件，失敗只記錄 log 與健康狀態，不影響帳本
func (j *Journal) Record(_ context.Context, event domain.Event) {
	err := j.wal.Write(&event)
	if err == nil {
		return
	}
	n := j.failures.Add(1)
	j.logger.Error("failed to append event",
		zap.Uint64("sequence", event.Sequence),
		zap.Stringer("kind", event.Kind),
		zap.Stringer("owner", event.Owner),
		zap.Uint64("failures", n),
		zap.Error(err),
	)
	if n == 1 && j.health != nil {
		j.logger.Error("journal has a gap, reporting NOT_SERVING", zap.Strings("services", j.services))
		for _, svc := range j.services {
			j.health.SetServingStatus(svc, healthpb.HealthCheckResponse_NOT_SERVING)
		}
	}
}

// Failures 寫入失敗次數
func (j *Journal) Failures() uint64 {
	return j.failures.Load()
}

var _ usecase.EventSink = (*Journal)(nil)
