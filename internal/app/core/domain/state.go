package domain

import "fmt"

// Limits 帳本建立時固定的上限，之後不可變更
//
// WithdrawalLimit 可以大於 BankCap，此時單筆上限永遠不會是限制條件
type Limits struct {
	WithdrawalLimit Amount
	BankCap         Amount
}

// State 帳本可變狀態，用於從 journal 或資料庫還原
type State struct {
	Balances        map[Owner]Amount
	TotalDeposits   Amount
	DepositCount    Counter
	WithdrawalCount Counter
}

// NewState 建立空狀態
func NewState() State {
	return State{Balances: make(map[Owner]Amount)}
}

// Validate 檢查狀態是否滿足不變量
//
//	TotalDeposits == sum(Balances)
//	TotalDeposits <= limits.BankCap
func (s *State) Validate(limits Limits) error {
	var sum Amount
	for owner, balance := range s.Balances {
		var ok bool
		sum, ok = sum.Add(balance)
		if !ok {
			return fmt.Errorf("%w: balance sum overflows at owner %q", ErrInconsistentState, owner)
		}
	}
	if sum != s.TotalDeposits {
		return fmt.Errorf("%w: total deposits %d != sum of balances %d", ErrInconsistentState, s.TotalDeposits, sum)
	}
	if s.TotalDeposits > limits.BankCap {
		return fmt.Errorf("%w: total deposits %d exceed bank cap %d", ErrInconsistentState, s.TotalDeposits, limits.BankCap)
	}
	return nil
}

// Apply 將一筆事件套用到狀態上 (重放用)，不檢查上限，只檢查算術與餘額一致性
func (s *State) Apply(e *Event) error {
	if s.Balances == nil {
		s.Balances = make(map[Owner]Amount)
	}
	balance := s.Balances[e.Owner]
	var (
		newBalance, newTotal Amount
		ok                   bool
	)
	depositCount, withdrawalCount := s.DepositCount, s.WithdrawalCount
	switch e.Kind {
	case EventKindDeposit:
		if newBalance, ok = balance.Add(e.Amount); !ok {
			return fmt.Errorf("%w: balance overflow at sequence %d", ErrInconsistentState, e.Sequence)
		}
		if newTotal, ok = s.TotalDeposits.Add(e.Amount); !ok {
			return fmt.Errorf("%w: total overflow at sequence %d", ErrInconsistentState, e.Sequence)
		}
		if depositCount, ok = depositCount.Inc(); !ok {
			return ErrCounterOverflow
		}
	case EventKindWithdrawal:
		if newBalance, ok = balance.Sub(e.Amount); !ok {
			return fmt.Errorf("%w: negative balance at sequence %d", ErrInconsistentState, e.Sequence)
		}
		if newTotal, ok = s.TotalDeposits.Sub(e.Amount); !ok {
			return fmt.Errorf("%w: negative total at sequence %d", ErrInconsistentState, e.Sequence)
		}
		if withdrawalCount, ok = withdrawalCount.Inc(); !ok {
			return ErrCounterOverflow
		}
	default:
		return fmt.Errorf("%w: unknown event kind %s", ErrInconsistentState, e.Kind)
	}
	if newBalance != e.NewBalance {
		return fmt.Errorf("%w: sequence %d expects balance %d, replay got %d",
			ErrInconsistentState, e.Sequence, e.NewBalance, newBalance)
	}
	if newBalance.IsZero() {
		delete(s.Balances, e.Owner)
	} else {
		s.Balances[e.Owner] = newBalance
	}
	s.TotalDeposits = newTotal
	s.DepositCount = depositCount
	s.WithdrawalCount = withdrawalCount
	return nil
}

// Sequence 目前已完成的操作數
func (s *State) Sequence() uint64 {
	return uint64(s.DepositCount) + uint64(s.WithdrawalCount)
}
