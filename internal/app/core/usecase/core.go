package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層，供 inbound adapter 呼叫
type CoreUseCase struct {
	ledger Ledger
	logger *zap.Logger
}

func NewCoreUseCase(ledger Ledger, logger *zap.Logger) *CoreUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoreUseCase{
		ledger: ledger,
		logger: logger.Named("core"),
	}
}

// Deposit 處理存款
func (c *CoreUseCase) Deposit(ctx context.Context, owner domain.Owner, amount domain.Amount) (*domain.DepositReceipt, error) {
	receipt, err := c.ledger.Deposit(ctx, owner, amount)
	if err != nil {
		c.logRejection("deposit", owner, amount, err)
		return nil, err
	}
	c.logger.Debug("deposit accepted",
		zap.Stringer("owner", owner),
		zap.Uint64("amount", uint64(amount)),
		zap.Uint64("new_balance", uint64(receipt.NewBalance)),
		zap.Uint64("sequence", receipt.Sequence),
	)
	return receipt, nil
}

// Withdraw 處理提款
func (c *CoreUseCase) Withdraw(ctx context.Context, owner domain.Owner, amount domain.Amount) (*domain.WithdrawalReceipt, error) {
	receipt, err := c.ledger.Withdraw(ctx, owner, amount)
	if err != nil {
		c.logRejection("withdraw", owner, amount, err)
		return nil, err
	}
	c.logger.Debug("withdrawal accepted",
		zap.Stringer("owner", owner),
		zap.Uint64("amount", uint64(amount)),
		zap.Uint64("new_balance", uint64(receipt.NewBalance)),
		zap.Uint64("sequence", receipt.Sequence),
	)
	return receipt, nil
}

// BalanceOf 取得擁有者餘額
func (c *CoreUseCase) BalanceOf(ctx context.Context, owner domain.Owner) (domain.Amount, error) {
	return c.ledger.BalanceOf(ctx, owner)
}

// Summary 取得帳本快照
func (c *CoreUseCase) Summary(ctx context.Context) (domain.Summary, error) {
	return c.ledger.Summary(ctx)
}

// logRejection 業務拒絕記 Info，轉出失敗與基礎設施錯誤記 Error
func (c *CoreUseCase) logRejection(op string, owner domain.Owner, amount domain.Amount, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Stringer("owner", owner),
		zap.Uint64("amount", uint64(amount)),
		zap.Error(err),
	}
	if IsBusinessError(err) {
		c.logger.Info("operation rejected", fields...)
		return
	}
	c.logger.Error("operation failed", fields...)
}

// IsBusinessError 是否為可預期的業務拒絕 (非系統故障)
func IsBusinessError(err error) bool {
	return errors.Is(err, domain.ErrZeroAmount) ||
		errors.Is(err, domain.ErrCapacityExceeded) ||
		errors.Is(err, domain.ErrInsufficientBalance) ||
		errors.Is(err, domain.ErrWithdrawalLimitExceeded)
}
