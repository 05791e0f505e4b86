package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/usecase"
)

// ErrVaultClosed 金庫已停止出金
var ErrVaultClosed = errors.New("vault is closed")

// Vault 記憶體中的出金機制 (開發模式與測試使用)
// 記錄每個擁有者已收到的總額
type Vault struct {
	mu     sync.Mutex
	paid   map[domain.Owner]domain.Amount
	closed bool
	// failWith 不為 nil 時每次 Send 都回傳此錯誤
	failWith error
}

// NewVault 建立一個新的 Vault
func NewVault() *Vault {
	return &Vault{
		paid: make(map[domain.Owner]domain.Amount),
	}
}

// Send 記錄出金
func (v *Vault) Send(ctx context.Context, recipient domain.Owner, amount domain.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrVaultClosed
	}
	if v.failWith != nil {
		return v.failWith
	}
	total, ok := v.paid[recipient].Add(amount)
	if !ok {
		return errors.New("vault: paid amount overflow")
	}
	v.paid[recipient] = total
	return nil
}

// FailWith 之後的 Send 都回傳 err，傳 nil 恢復正常
func (v *Vault) FailWith(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failWith = err
}

// Close 停止出金
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// Paid 擁有者已收到的總額
func (v *Vault) Paid(owner domain.Owner) domain.Amount {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.paid[owner]
}

// PaidAll 所有出金紀錄的複本
func (v *Vault) PaidAll() map[domain.Owner]domain.Amount {
	v.mu.Lock()
	defer v.mu.Unlock()
	return maps.Clone(v.paid)
}

var _ usecase.TransferSink = (*Vault)(nil)
