package payout_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/adapter/out/payout"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	grpcpkg "github.com/JoeShih716/go-custody-ledger/pkg/grpc"
)

const bufTarget = "passthrough:///bufnet"

// startPayout 在 bufconn 上架設以 Vault 為後端的出金服務
func startPayout(t *testing.T, srv payout.PayoutServiceServer) *grpcpkg.Pool {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	payout.RegisterPayoutServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	pool := grpcpkg.NewPool(grpcpkg.WithDialOptions(
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	))
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestRemoteSink_Send(t *testing.T) {
	vault := memory.NewVault()
	pool := startPayout(t, payout.NewSinkServer(vault))
	sink := payout.NewRemoteSink(pool, bufTarget, time.Second, zaptest.NewLogger(t))

	require.NoError(t, sink.Send(context.Background(), "alice", 300))
	require.NoError(t, sink.Send(context.Background(), "alice", 200))
	assert.Equal(t, domain.Amount(500), vault.Paid("alice"))
}

func TestRemoteSink_Rejected(t *testing.T) {
	vault := memory.NewVault()
	vault.FailWith(errors.New("insufficient reserves"))
	pool := startPayout(t, payout.NewSinkServer(vault))
	sink := payout.NewRemoteSink(pool, bufTarget, time.Second, nil)

	err := sink.Send(context.Background(), "alice", 300)
	require.ErrorIs(t, err, payout.ErrRejected)
	assert.Contains(t, err.Error(), "insufficient reserves")
	assert.Zero(t, vault.Paid("alice"))
}

func TestRemoteSink_TransportError(t *testing.T) {
	pool := startPayout(t, payout.UnimplementedPayoutServiceServer{})
	sink := payout.NewRemoteSink(pool, bufTarget, time.Second, nil)

	err := sink.Send(context.Background(), "alice", 300)
	require.Error(t, err)
	assert.NotErrorIs(t, err, payout.ErrRejected)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestRemoteSink_WithLedger(t *testing.T) {
	vault := memory.NewVault()
	pool := startPayout(t, payout.NewSinkServer(vault))
	sink := payout.NewRemoteSink(pool, bufTarget, time.Second, nil)

	ledger, err := memory.NewMutexLedger(domain.Limits{WithdrawalLimit: 5_000, BankCap: 20_000}, sink, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = ledger.Deposit(ctx, "alice", 1_000)
	require.NoError(t, err)
	_, err = ledger.Withdraw(ctx, "alice", 400)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(400), vault.Paid("alice"))

	vault.FailWith(errors.New("offline"))
	_, err = ledger.Withdraw(ctx, "alice", 100)
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	require.ErrorIs(t, err, payout.ErrRejected)

	bal, err := ledger.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(600), bal)
}

func TestSinkServer_InvalidArgument(t *testing.T) {
	srv := payout.NewSinkServer(memory.NewVault())
	_, err := srv.Send(context.Background(), &payout.SendRequest{Amount: 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
