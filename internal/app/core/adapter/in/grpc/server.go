package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/usecase"
)

type GrpcServer struct {
	UnimplementedLedgerServiceServer
	core *usecase.CoreUseCase
}

func NewGrpcServer(core *usecase.CoreUseCase) *GrpcServer {
	return &GrpcServer{
		core: core,
	}
}

func (s *GrpcServer) Deposit(ctx context.Context, req *OperationRequest) (*OperationResponse, error) {
	refID, err := validateOperation(req)
	if err != nil {
		return nil, err
	}
	receipt, err := s.core.Deposit(ctx, domain.Owner(req.Owner), domain.Amount(req.Amount))
	if err != nil {
		return failure(refID, err)
	}
	return &OperationResponse{
		Success:    true,
		RefID:      refID,
		ReceiptID:  receipt.ID.String(),
		Sequence:   receipt.Sequence,
		NewBalance: uint64(receipt.NewBalance),
	}, nil
}

func (s *GrpcServer) Withdraw(ctx context.Context, req *OperationRequest) (*OperationResponse, error) {
	refID, err := validateOperation(req)
	if err != nil {
		return nil, err
	}
	receipt, err := s.core.Withdraw(ctx, domain.Owner(req.Owner), domain.Amount(req.Amount))
	if err != nil {
		return failure(refID, err)
	}
	return &OperationResponse{
		Success:    true,
		RefID:      refID,
		ReceiptID:  receipt.ID.String(),
		Sequence:   receipt.Sequence,
		NewBalance: uint64(receipt.NewBalance),
	}, nil
}

func (s *GrpcServer) BalanceOf(ctx context.Context, req *BalanceRequest) (*BalanceResponse, error) {
	if req.Owner == "" {
		return nil, status.Error(codes.InvalidArgument, "owner is required")
	}
	balance, err := s.core.BalanceOf(ctx, domain.Owner(req.Owner))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &BalanceResponse{
		Owner:   req.Owner,
		Balance: uint64(balance),
	}, nil
}

func (s *GrpcServer) Summary(ctx context.Context, _ *emptypb.Empty) (*SummaryResponse, error) {
	sum, err := s.core.Summary(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &SummaryResponse{
		TotalDeposits:   uint64(sum.TotalDeposits),
		BankCap:         uint64(sum.BankCap),
		WithdrawalLimit: uint64(sum.WithdrawalLimit),
		DepositCount:    uint64(sum.DepositCount),
		WithdrawalCount: uint64(sum.WithdrawalCount),
	}, nil
}

// validateOperation 檢查 owner 與 ref_id，ref_id 為空時自動產生
func validateOperation(req *OperationRequest) (string, error) {
	if req.Owner == "" {
		return "", status.Error(codes.InvalidArgument, "owner is required")
	}
	if req.RefID == "" {
		return uuid.NewString(), nil
	}
	u, err := uuid.Parse(req.RefID)
	if err != nil {
		return "", status.Error(codes.InvalidArgument, "invalid ref_id: "+err.Error())
	}
	return u.String(), nil
}

// failure 業務錯誤回傳 Success=false，其餘轉成 gRPC status
func failure(refID string, err error) (*OperationResponse, error) {
	code := errorCode(err)
	if code == "" {
		if errors.Is(err, domain.ErrReentrantCall) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &OperationResponse{
		Success: false,
		Code:    code,
		Message: err.Error(),
		RefID:   refID,
	}, nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrZeroAmount):
		return CodeZeroAmount
	case errors.Is(err, domain.ErrCapacityExceeded):
		return CodeCapacityExceeded
	case errors.Is(err, domain.ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, domain.ErrWithdrawalLimitExceeded):
		return CodeWithdrawalLimitExceeded
	case errors.Is(err, domain.ErrTransferFailed):
		return CodeTransferFailed
	default:
		return ""
	}
}

var _ LedgerServiceServer = (*GrpcServer)(nil)
