package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	grpcpkg "github.com/JoeShih716/go-custody-ledger/pkg/grpc"
)

// ledger.LedgerService 的 gRPC 定義，訊息以 JSON codec 傳輸 (pkg/grpc/codec.go)

const (
	LedgerService_ServiceName              = "ledger.LedgerService"
	LedgerService_Deposit_FullMethodName   = "/ledger.LedgerService/Deposit"
	LedgerService_Withdraw_FullMethodName  = "/ledger.LedgerService/Withdraw"
	LedgerService_BalanceOf_FullMethodName = "/ledger.LedgerService/BalanceOf"
	LedgerService_Summary_FullMethodName   = "/ledger.LedgerService/Summary"
)

// 業務錯誤代碼，放在 OperationResponse.Code
const (
	CodeZeroAmount              = "ZERO_AMOUNT"
	CodeCapacityExceeded        = "CAPACITY_EXCEEDED"
	CodeInsufficientBalance     = "INSUFFICIENT_BALANCE"
	CodeWithdrawalLimitExceeded = "WITHDRAWAL_LIMIT_EXCEEDED"
	CodeTransferFailed          = "TRANSFER_FAILED"
)

// OperationRequest 存款/提款請求
type OperationRequest struct {
	// RefID 呼叫端追蹤號 (UUID)，只用於 log 與回應
	RefID  string `json:"ref_id,omitempty"`
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

// OperationResponse 存款/提款結果
// 業務錯誤以 Success=false 回傳 (Soft Failure)
type OperationResponse struct {
	Success    bool   `json:"success"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	RefID      string `json:"ref_id,omitempty"`
	ReceiptID  string `json:"receipt_id,omitempty"`
	Sequence   uint64 `json:"sequence,omitempty"`
	NewBalance uint64 `json:"new_balance"`
}

type BalanceRequest struct {
	Owner string `json:"owner"`
}

type BalanceResponse struct {
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}

type SummaryResponse struct {
	TotalDeposits   uint64 `json:"total_deposits"`
	BankCap         uint64 `json:"bank_cap"`
	WithdrawalLimit uint64 `json:"withdrawal_limit"`
	DepositCount    uint64 `json:"deposit_count"`
	WithdrawalCount uint64 `json:"withdrawal_count"`
}

// LedgerServiceClient 帳本服務客戶端
type LedgerServiceClient interface {
	Deposit(ctx context.Context, in *OperationRequest, opts ...grpc.CallOption) (*OperationResponse, error)
	Withdraw(ctx context.Context, in *OperationRequest, opts ...grpc.CallOption) (*OperationResponse, error)
	BalanceOf(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error)
	Summary(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*SummaryResponse, error)
}

type ledgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient 建立客戶端，每次呼叫都使用 JSON codec
func NewLedgerServiceClient(cc grpc.ClientConnInterface) LedgerServiceClient {
	return &ledgerServiceClient{cc}
}

func (c *ledgerServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(grpcpkg.CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *ledgerServiceClient) Deposit(ctx context.Context, in *OperationRequest, opts ...grpc.CallOption) (*OperationResponse, error) {
	out := new(OperationResponse)
	if err := c.invoke(ctx, LedgerService_Deposit_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) Withdraw(ctx context.Context, in *OperationRequest, opts ...grpc.CallOption) (*OperationResponse, error) {
	out := new(OperationResponse)
	if err := c.invoke(ctx, LedgerService_Withdraw_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) BalanceOf(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	out := new(BalanceResponse)
	if err := c.invoke(ctx, LedgerService_BalanceOf_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) Summary(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*SummaryResponse, error) {
	out := new(SummaryResponse)
	if err := c.invoke(ctx, LedgerService_Summary_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// LedgerServiceServer 帳本服務端介面
type LedgerServiceServer interface {
	Deposit(context.Context, *OperationRequest) (*OperationResponse, error)
	Withdraw(context.Context, *OperationRequest) (*OperationResponse, error)
	BalanceOf(context.Context, *BalanceRequest) (*BalanceResponse, error)
	Summary(context.Context, *emptypb.Empty) (*SummaryResponse, error)
}

// UnimplementedLedgerServiceServer 可嵌入以取得預設實作
type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) Deposit(context.Context, *OperationRequest) (*OperationResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Deposit not implemented")
}
func (UnimplementedLedgerServiceServer) Withdraw(context.Context, *OperationRequest) (*OperationResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Withdraw not implemented")
}
func (UnimplementedLedgerServiceServer) BalanceOf(context.Context, *BalanceRequest) (*BalanceResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method BalanceOf not implemented")
}
func (UnimplementedLedgerServiceServer) Summary(context.Context, *emptypb.Empty) (*SummaryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Summary not implemented")
}

// RegisterLedgerServiceServer 註冊帳本服務
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

func _LedgerService_Deposit_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(OperationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServiceServer).Deposit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LedgerService_Deposit_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServiceServer).Deposit(ctx, req.(*OperationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LedgerService_Withdraw_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(OperationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServiceServer).Withdraw(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LedgerService_Withdraw_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServiceServer).Withdraw(ctx, req.(*OperationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LedgerService_BalanceOf_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(BalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServiceServer).BalanceOf(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LedgerService_BalanceOf_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServiceServer).BalanceOf(ctx, req.(*BalanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LedgerService_Summary_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServiceServer).Summary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LedgerService_Summary_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServiceServer).Summary(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// LedgerService_ServiceDesc 帳本服務描述
var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerService_ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Deposit",
			Handler:    _LedgerService_Deposit_Handler,
		},
		{
			MethodName: "Withdraw",
			Handler:    _LedgerService_Withdraw_Handler,
		},
		{
			MethodName: "BalanceOf",
			Handler:    _LedgerService_BalanceOf_Handler,
		},
		{
			MethodName: "Summary",
			Handler:    _LedgerService_Summary_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger.json",
}
