package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/usecase"
	grpcpkg "github.com/JoeShih716/go-custody-ledger/pkg/grpc"
)

// ErrRejected 出金服務拒絕這筆出金
var ErrRejected = errors.New("payout rejected")

// RemoteSink 透過 gRPC 呼叫外部出金服務的 TransferSink
type RemoteSink struct {
	pool    *grpcpkg.Pool
	target  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRemoteSink 建立 RemoteSink
//
// 參數:
//
//	pool: gRPC 連線池
//	target: 出金服務地址
//	timeout: 單次呼叫逾時，0 代表沿用呼叫端 context
func NewRemoteSink(pool *grpcpkg.Pool, target string, timeout time.Duration, logger *zap.Logger) *RemoteSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteSink{
		pool:    pool,
		target:  target,
		timeout: timeout,
		logger:  logger.Named("payout"),
	}
}

// Send 呼叫出金服務，連線錯誤、逾時或被拒絕皆回傳錯誤 (不重試)
func (r *RemoteSink) Send(ctx context.Context, recipient domain.Owner, amount domain.Amount) error {
	conn, err := r.pool.GetConnection(r.target)
	if err != nil {
		return err
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req := &SendRequest{
		RefID:     uuid.NewString(),
		Recipient: recipient.String(),
		Amount:    uint64(amount),
	}
	resp := new(SendResponse)
	if err := conn.Invoke(ctx, PayoutService_Send_FullMethodName, req, resp); err != nil {
		return fmt.Errorf("payout %s: %w", req.RefID, err)
	}
	if !resp.Accepted {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}
	r.logger.Debug("payout accepted",
		zap.String("ref_id", req.RefID),
		zap.Stringer("recipient", recipient),
		zap.Uint64("amount", req.Amount),
	)
	return nil
}

var _ usecase.TransferSink = (*RemoteSink)(nil)
