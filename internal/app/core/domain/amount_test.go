package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountAdd(t *testing.T) {
	sum, ok := Amount(10_000).Add(5_000)
	assert.True(t, ok)
	assert.Equal(t, Amount(15_000), sum)

	_, ok = MaxAmount.Add(1)
	assert.False(t, ok, "overflow must be reported")

	sum, ok = MaxAmount.Add(0)
	assert.True(t, ok)
	assert.Equal(t, MaxAmount, sum)
}

func TestAmountSub(t *testing.T) {
	diff, ok := Amount(10_000).Sub(10_000)
	assert.True(t, ok)
	assert.True(t, diff.IsZero())

	_, ok = Amount(0).Sub(1)
	assert.False(t, ok, "underflow must be reported")
}

func TestCounterInc(t *testing.T) {
	c, ok := Counter(0).Inc()
	assert.True(t, ok)
	assert.Equal(t, Counter(1), c)

	c, ok = Counter(math.MaxUint64).Inc()
	assert.False(t, ok)
	assert.Equal(t, Counter(math.MaxUint64), c)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "deposit", EventKindDeposit.String())
	assert.Equal(t, "withdrawal", EventKindWithdrawal.String())
	assert.Equal(t, "unknown(9)", EventKind(9).String())
}
