package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/adapter/out/journal"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/pkg/wal"
)

func openWAL(t *testing.T, path string) *wal.WAL {
	t.Helper()
	w, err := wal.Open(path, wal.WithoutSync())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestRecoverStateReplaysJournal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wal.log")
	w := openWAL(t, path)

	vault := NewVault()
	l, err := NewMutexLedger(testLimits, vault, journal.NewJournal(w, nil))
	require.NoError(t, err)

	_, err = l.Deposit(ctx, "A", 10_000)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, "B", 2_000)
	require.NoError(t, err)
	_, err = l.Withdraw(ctx, "A", 5_000)
	require.NoError(t, err)
	_, err = l.Withdraw(ctx, "B", 2_000)
	require.NoError(t, err)
	want := l.State()

	// 重啟
	restored, err := RecoverState(openWAL(t, path), testLimits)
	require.NoError(t, err)
	assert.Equal(t, want.TotalDeposits, restored.TotalDeposits)
	assert.Equal(t, want.DepositCount, restored.DepositCount)
	assert.Equal(t, want.WithdrawalCount, restored.WithdrawalCount)
	assert.Equal(t, domain.Amount(5_000), restored.Balances["A"])
	assert.NotContains(t, restored.Balances, domain.Owner("B"))

	l2, err := NewMutexLedger(testLimits, vault, nil, WithState(restored))
	require.NoError(t, err)
	r, err := l2.Deposit(ctx, "C", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), r.Sequence)
}

func TestRecoverStateEmptyJournal(t *testing.T) {
	state, err := RecoverState(openWAL(t, filepath.Join(t.TempDir(), "wal.log")), testLimits)
	require.NoError(t, err)
	assert.Empty(t, state.Balances)
	assert.Zero(t, state.Sequence())
}

func TestRecoverStateRejectsGaps(t *testing.T) {
	w := openWAL(t, filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, w.Write(&domain.Event{Sequence: 1, Kind: domain.EventKindDeposit, Owner: "A", Amount: 10, NewBalance: 10}))
	require.NoError(t, w.Write(&domain.Event{Sequence: 3, Kind: domain.EventKindDeposit, Owner: "A", Amount: 10, NewBalance: 20}))

	_, err := RecoverState(w, testLimits)
	assert.ErrorIs(t, err, domain.ErrInconsistentState)
}

func TestRecoverStateRejectsStateAboveCap(t *testing.T) {
	w := openWAL(t, filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, w.Write(&domain.Event{Sequence: 1, Kind: domain.EventKindDeposit, Owner: "A", Amount: 30_000, NewBalance: 30_000}))

	_, err := RecoverState(w, testLimits)
	assert.ErrorIs(t, err, domain.ErrInconsistentState)
}

func TestRecoverStateTornRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w := openWAL(t, path)
	require.NoError(t, w.Write(&domain.Event{Sequence: 1, Kind: domain.EventKindDeposit, Owner: "A", Amount: 10, NewBalance: 10}))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString(`{"Sequence":2,"Amo`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = RecoverState(w, testLimits)
	assert.ErrorIs(t, err, wal.ErrTornRecord)
}
