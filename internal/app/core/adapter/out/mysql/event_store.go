package mysql

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-custody-ledger/pkg/mysql"
)

// EventStore 非同步把帳本事件寫入 ledger_events
//
// Record -> Channel -> Run Loop -> INSERT
// 帳本在持鎖狀態下呼叫 Record，因此 Record 永不阻塞；佇列滿時丟棄並計數。
type EventStore struct {
	client *mysql.Client
	logger *zap.Logger
	// 輸送帶 負責接收事件
	events chan domain.Event

	dropped atomic.Uint64
	failed  atomic.Uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEventStore 建立 EventStore，需呼叫 Start 才會開始寫入
func NewEventStore(client *mysql.Client, buffer int, logger *zap.Logger) *EventStore {
	if buffer <= 0 {
		buffer = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventStore{
		client: client,
		logger: logger.Named("event_store"),
		events: make(chan domain.Event, buffer),
	}
}

// Start 啟動寫入迴圈 (非同步)
func (s *EventStore) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
}

// Close 停止寫入迴圈，剩下的事件寫完才返回
func (s *EventStore) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

// Record implements usecase.EventSink.
func (s *EventStore) Record(_ context.Context, event domain.Event) {
	select {
	case s.events <- event:
	default:
		s.dropped.Add(1)
		s.logger.Warn("event queue full, event dropped",
			zap.Uint64("sequence", event.Sequence),
			zap.Stringer("kind", event.Kind),
		)
	}
}

// Dropped 因佇列滿而丟棄的事件數
func (s *EventStore) Dropped() uint64 {
	return s.dropped.Load()
}

// Failed 寫入失敗的事件數
func (s *EventStore) Failed() uint64 {
	return s.failed.Load()
}

// LoadEvents 依序號讀取事件 (稽核用)
//
// 參數:
//
//	afterSequence: 只回傳序號大於此值的事件
//	limit: 最多筆數
func (s *EventStore) LoadEvents(ctx context.Context, afterSequence uint64, limit int) ([]domain.Event, error) {
	var rows []sqlEvent
	err := s.client.DB().WithContext(ctx).
		Where("sequence > ?", afterSequence).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *EventStore) run(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的事件處理完
			s.drain()
			return
		case event := <-s.events:
			s.write(context.Background(), &event)
		}
	}
}

func (s *EventStore) drain() {
	for {
		select {
		case event := <-s.events:
			s.write(context.Background(), &event)
		default:
			return
		}
	}
}

func (s *EventStore) write(ctx context.Context, event *domain.Event) {
	if err := s.client.DB().WithContext(ctx).Create(toSQLEvent(event)).Error; err != nil {
		s.failed.Add(1)
		s.logger.Error("failed to insert event",
			zap.Uint64("sequence", event.Sequence),
			zap.Error(err),
		)
	}
}

var _ usecase.EventSink = (*EventStore)(nil)
