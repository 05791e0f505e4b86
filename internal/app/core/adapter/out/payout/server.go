package payout

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/usecase"
)

// SinkServer 把 PayoutService 轉接到本地的 TransferSink (如 memory.Vault)
// 用於開發環境架設假的出金服務
type SinkServer struct {
	UnimplementedPayoutServiceServer
	sink usecase.TransferSink
}

func NewSinkServer(sink usecase.TransferSink) *SinkServer {
	return &SinkServer{sink: sink}
}

func (s *SinkServer) Send(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	if req.Recipient == "" {
		return nil, status.Error(codes.InvalidArgument, "recipient is required")
	}
	if err := s.sink.Send(ctx, domain.Owner(req.Recipient), domain.Amount(req.Amount)); err != nil {
		// 業務拒絕，回傳 Accepted=false (Soft Failure)
		return &SendResponse{Accepted: false, Message: err.Error()}, nil
	}
	return &SendResponse{Accepted: true}, nil
}

var _ PayoutServiceServer = (*SinkServer)(nil)
