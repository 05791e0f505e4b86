package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
)

func TestPool_GetConnectionReuse(t *testing.T) {
	p := NewPool()
	defer p.Close()

	c1, err := p.GetConnection("passthrough:///payout:50061")
	require.NoError(t, err)
	c2, err := p.GetConnection("passthrough:///payout:50061")
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	other, err := p.GetConnection("passthrough:///payout:50062")
	require.NoError(t, err)
	assert.NotSame(t, c1, other)
}

func TestPool_ReplacesShutdownConnection(t *testing.T) {
	p := NewPool()
	defer p.Close()

	c1, err := p.GetConnection("passthrough:///payout:50061")
	require.NoError(t, err)
	require.NoError(t, c1.Close())
	assert.Equal(t, connectivity.Shutdown, c1.GetState())

	c2, err := p.GetConnection("passthrough:///payout:50061")
	require.NoError(t, err)
	assert.NotSame(t, c1, c2)
}

func TestPool_Close(t *testing.T) {
	p := NewPool()
	c, err := p.GetConnection("passthrough:///payout:50061")
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.Equal(t, connectivity.Shutdown, c.GetState())
}

func TestPool_WithInterceptor(t *testing.T) {
	var called []string
	errStop := errors.New("stop")
	p := NewPool(WithInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		called = append(called, method)
		return errStop
	}))
	defer p.Close()

	c, err := p.GetConnection("passthrough:///payout:50061")
	require.NoError(t, err)
	err = c.Invoke(context.Background(), "/payout.PayoutService/Send", struct{}{}, new(struct{}))
	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, []string{"/payout.PayoutService/Send"}, called)
}
