package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLimits = Limits{WithdrawalLimit: 5_000, BankCap: 20_000}

func TestStateValidate(t *testing.T) {
	s := State{
		Balances:      map[Owner]Amount{"A": 5_000, "B": 3_000},
		TotalDeposits: 8_000,
	}
	require.NoError(t, s.Validate(testLimits))

	s.TotalDeposits = 7_999
	assert.ErrorIs(t, s.Validate(testLimits), ErrInconsistentState)

	over := State{Balances: map[Owner]Amount{"A": 20_001}, TotalDeposits: 20_001}
	assert.ErrorIs(t, over.Validate(testLimits), ErrInconsistentState)

	overflow := State{Balances: map[Owner]Amount{"A": MaxAmount, "B": 1}}
	assert.ErrorIs(t, overflow.Validate(testLimits), ErrInconsistentState)

	empty := NewState()
	assert.NoError(t, empty.Validate(testLimits))
}

func TestStateApply(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Apply(&Event{Sequence: 1, Kind: EventKindDeposit, Owner: "A", Amount: 10_000, NewBalance: 10_000}))
	require.NoError(t, s.Apply(&Event{Sequence: 2, Kind: EventKindWithdrawal, Owner: "A", Amount: 5_000, NewBalance: 5_000}))

	assert.Equal(t, Amount(5_000), s.Balances["A"])
	assert.Equal(t, Amount(5_000), s.TotalDeposits)
	assert.Equal(t, Counter(1), s.DepositCount)
	assert.Equal(t, Counter(1), s.WithdrawalCount)
	assert.Equal(t, uint64(2), s.Sequence())
}

func TestStateApplyRejectsInconsistentEvents(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Apply(&Event{Sequence: 1, Kind: EventKindDeposit, Owner: "A", Amount: 100, NewBalance: 100}))

	// 餘額不一致
	err := s.Apply(&Event{Sequence: 2, Kind: EventKindDeposit, Owner: "A", Amount: 100, NewBalance: 999})
	assert.ErrorIs(t, err, ErrInconsistentState)
	// 失敗時狀態不變
	assert.Equal(t, Amount(100), s.Balances["A"])
	assert.Equal(t, Counter(1), s.DepositCount)

	// 提款超過餘額
	err = s.Apply(&Event{Sequence: 2, Kind: EventKindWithdrawal, Owner: "A", Amount: 101, NewBalance: 0})
	assert.ErrorIs(t, err, ErrInconsistentState)

	// 未知類型
	err = s.Apply(&Event{Sequence: 2, Kind: EventKind(7), Owner: "A", Amount: 1})
	assert.ErrorIs(t, err, ErrInconsistentState)
}
