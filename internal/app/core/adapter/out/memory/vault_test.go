package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
)

func TestVault(t *testing.T) {
	ctx := context.Background()
	v := NewVault()

	require.NoError(t, v.Send(ctx, "A", 100))
	require.NoError(t, v.Send(ctx, "A", 50))
	require.NoError(t, v.Send(ctx, "B", 1))
	assert.Equal(t, domain.Amount(150), v.Paid("A"))
	assert.Equal(t, map[domain.Owner]domain.Amount{"A": 150, "B": 1}, v.PaidAll())

	halted := errors.New("halted")
	v.FailWith(halted)
	assert.ErrorIs(t, v.Send(ctx, "A", 1), halted)
	assert.Equal(t, domain.Amount(150), v.Paid("A"))

	v.FailWith(nil)
	require.NoError(t, v.Close())
	assert.ErrorIs(t, v.Send(ctx, "A", 1), ErrVaultClosed)
}

func TestVaultRespectsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := NewVault()
	assert.ErrorIs(t, v.Send(ctx, "A", 1), context.Canceled)
	assert.Zero(t, v.Paid("A"))
}
