package grpc

import (
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Pool 快取帳本對外的 gRPC 連線 (出金服務、壓測工具連帳本)
//
// 每個目標地址只保留一條 *grpc.ClientConn，已關閉的連線會在下次取用時重建。
// 所有連線預設以 JSON codec 呼叫，並可共用攔截器與額外的 DialOption。
type Pool struct {
	mu       sync.Mutex
	conns    sync.Map // target -> *grpc.ClientConn
	dialOpts []grpc.DialOption
}

// PoolOption Pool 的設定選項
type PoolOption func(*Pool)

// WithInterceptor 為所有連線加上 UnaryClientInterceptor (如出金呼叫的 log 或追蹤)
func WithInterceptor(interceptor grpc.UnaryClientInterceptor) PoolOption {
	return WithDialOptions(grpc.WithUnaryInterceptor(interceptor))
}

// WithDialOptions 為所有連線加上額外的 DialOption
// 例如出金服務的 TLS 憑證，或測試用的 grpc.WithContextDialer。
func WithDialOptions(opts ...grpc.DialOption) PoolOption {
	return func(p *Pool) {
		p.dialOpts = append(p.dialOpts, opts...)
	}
}

// NewPool 建立連線池
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetConnection 取得通往 target 的連線，不存在或已關閉時建立新的
//
// 參數:
//
//	target: 目標地址 (如 payout.target 設定的 "payout:50061")
//	opts: 只套用在這次新建連線的 DialOption
//
// 回傳值:
//
//	*grpc.ClientConn: 連線 (Lazy，第一次呼叫才真正連線)
//	error: grpc.NewClient 失敗
func (p *Pool) GetConnection(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if conn, ok := p.live(target); ok {
		return conn, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// 持鎖後再確認一次，避免並發時重複建立
	if conn, ok := p.live(target); ok {
		return conn, nil
	}

	conn, err := grpc.NewClient(target, p.options(opts)...)
	if err != nil {
		return nil, fmt.Errorf("grpc pool: dial %s: %w", target, err)
	}
	p.conns.Store(target, conn)
	return conn, nil
}

// live 回傳快取中仍可用的連線，已 Shutdown 的順便移除
func (p *Pool) live(target string) (*grpc.ClientConn, bool) {
	v, ok := p.conns.Load(target)
	if !ok {
		return nil, false
	}
	conn := v.(*grpc.ClientConn)
	if conn.GetState() == connectivity.Shutdown {
		p.conns.CompareAndDelete(target, conn)
		return nil, false
	}
	return conn, true
}

// options 預設選項 + Pool 共用選項 + 單次選項，後者可覆蓋前者
func (p *Pool) options(extra []grpc.DialOption) []grpc.DialOption {
	opts := []grpc.DialOption{
		// 出金服務在內網，預設不加密；需要 TLS 時以 WithDialOptions 覆蓋
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, p.dialOpts...)
	return append(opts, extra...)
}

// Close 關閉並移除所有連線，回傳第一個錯誤
func (p *Pool) Close() error {
	var firstErr error
	p.conns.Range(func(key, value any) bool {
		if err := value.(*grpc.ClientConn).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.conns.Delete(key)
		return true
	})
	return firstErr
}
