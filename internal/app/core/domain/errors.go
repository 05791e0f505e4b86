package domain

import "errors"

var (
	// ErrZeroAmount 金額為 0
	ErrZeroAmount = errors.New("amount must be greater than zero")

	// ErrCapacityExceeded 存款後總額會超過銀行上限 (含加法溢位)
	ErrCapacityExceeded = errors.New("bank capacity exceeded")

	// ErrInsufficientBalance 餘額不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrWithdrawalLimitExceeded 超過單筆提款上限
	ErrWithdrawalLimitExceeded = errors.New("withdrawal limit exceeded")

	// ErrTransferFailed 外部轉出失敗，提款已全數回滾
	ErrTransferFailed = errors.New("transfer failed")

	// ErrReentrantCall 轉出回呼中再次呼叫同一帳本的寫入操作
	ErrReentrantCall = errors.New("reentrant ledger call")

	// ErrCounterOverflow 計數器已達上限
	ErrCounterOverflow = errors.New("operation counter overflow")

	// ErrInconsistentState 還原的狀態違反帳本不變量
	ErrInconsistentState = errors.New("inconsistent ledger state")
)
