package payout

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// 出金服務 (payout.PayoutService) 的 gRPC 定義，訊息以 JSON codec 傳輸

const (
	PayoutService_ServiceName         = "payout.PayoutService"
	PayoutService_Send_FullMethodName = "/payout.PayoutService/Send"
)

// SendRequest 出金請求
type SendRequest struct {
	RefID     string `json:"ref_id"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// SendResponse 出金結果，Accepted=false 代表對方拒絕
type SendResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// PayoutServiceServer 出金服務端介面
type PayoutServiceServer interface {
	Send(context.Context, *SendRequest) (*SendResponse, error)
}

// UnimplementedPayoutServiceServer 可嵌入以取得預設實作
type UnimplementedPayoutServiceServer struct{}

func (UnimplementedPayoutServiceServer) Send(context.Context, *SendRequest) (*SendResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Send not implemented")
}

// RegisterPayoutServiceServer 註冊出金服務
func RegisterPayoutServiceServer(s grpc.ServiceRegistrar, srv PayoutServiceServer) {
	s.RegisterService(&PayoutService_ServiceDesc, srv)
}

func _PayoutService_Send_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SendRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PayoutServiceServer).Send(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PayoutService_Send_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PayoutServiceServer).Send(ctx, req.(*SendRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// PayoutService_ServiceDesc 出金服務描述
var PayoutService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: PayoutService_ServiceName,
	HandlerType: (*PayoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Send",
			Handler:    _PayoutService_Send_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "payout.json",
}
