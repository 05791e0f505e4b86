package domain

import "github.com/google/uuid"

// DepositReceipt 存款成功的收據
type DepositReceipt struct {
	ID         uuid.UUID
	Sequence   uint64
	Owner      Owner
	Amount     Amount
	NewBalance Amount
	CreatedAt  int64
}

// WithdrawalReceipt 提款成功的收據
type WithdrawalReceipt struct {
	ID         uuid.UUID
	Sequence   uint64
	Owner      Owner
	Amount     Amount
	NewBalance Amount
	CreatedAt  int64
}

// Summary 帳本的一致性快照
type Summary struct {
	TotalDeposits   Amount
	BankCap         Amount
	WithdrawalLimit Amount
	DepositCount    Counter
	WithdrawalCount Counter
}
