package usecase

import (
	"context"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
)

//go:generate mockgen -destination mocks/mock_ports.go -package mocks github.com/JoeShih716/go-custody-ledger/internal/app/core/usecase Ledger,TransferSink,EventSink

// Ledger 是帳務系統的介面
type Ledger interface {
	// Deposit 存款，金額應已由呼叫端先行收妥
	Deposit(ctx context.Context, owner domain.Owner, amount domain.Amount) (*domain.DepositReceipt, error)
	// Withdraw 提款，帳本異動後透過 TransferSink 轉出，失敗則全數回滾
	Withdraw(ctx context.Context, owner domain.Owner, amount domain.Amount) (*domain.WithdrawalReceipt, error)
	// BalanceOf 取得擁有者餘額，不存在回傳 0
	BalanceOf(ctx context.Context, owner domain.Owner) (domain.Amount, error)
	// Summary 取得帳本快照
	Summary(ctx context.Context) (domain.Summary, error)
}

// TransferSink 實際把價值轉給擁有者的外部機制
type TransferSink interface {
	// Send 轉出 amount 給 recipient，每筆提款最多呼叫一次，不重試
	Send(ctx context.Context, recipient domain.Owner, amount domain.Amount) error
}

// EventSink 接收帳本狀態變更紀錄 (fire-and-forget)
type EventSink interface {
	Record(ctx context.Context, event domain.Event)
}
