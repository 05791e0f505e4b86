package domain

import (
	"math"
	"math/bits"
)

// Amount 以最小單位表示的金額 (非負整數)
// 使用 uint64，負餘額在型別層級即不可能發生
type Amount uint64

// MaxAmount Amount 可表示的最大值
const MaxAmount Amount = math.MaxUint64

// Add 溢位檢查的加法
//
// 回傳:
//
//	Amount: a + b
//	bool: 是否成功 (false 代表溢位，結果不可使用)
func (a Amount) Add(b Amount) (Amount, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, false
	}
	return Amount(sum), true
}

// Sub 溢位檢查的減法，b > a 時回傳 false
func (a Amount) Sub(b Amount) (Amount, bool) {
	diff, borrow := bits.Sub64(uint64(a), uint64(b), 0)
	if borrow != 0 {
		return 0, false
	}
	return Amount(diff), true
}

// IsZero 是否為 0
func (a Amount) IsZero() bool {
	return a == 0
}

// Counter 成功操作次數，只增不減
type Counter uint64

// Inc 加一，溢位時回傳 false 且不改變值
func (c Counter) Inc() (Counter, bool) {
	if c == math.MaxUint64 {
		return c, false
	}
	return c + 1, true
}
