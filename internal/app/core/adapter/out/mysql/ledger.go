package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-custody-ledger/pkg/mysql"
)

// ErrLimitsMismatch 資料庫中的上限與設定不同 (上限建立後不可變更)
var ErrLimitsMismatch = errors.New("ledger limits differ from stored limits")

// MySQLLedger 以資料庫交易實現的帳本 (Level 0)
//
// ledger_meta 唯一一列以悲觀鎖 (SELECT ... FOR UPDATE) 鎖定，
// 所有存提款因此在資料庫層序列化；提款的轉出在交易內呼叫，失敗即 Rollback。
type MySQLLedger struct {
	client   *mysql.Client
	limits   domain.Limits
	transfer usecase.TransferSink
	events   usecase.EventSink
	logger   *zap.Logger
}

func NewMySQLLedger(client *mysql.Client, limits domain.Limits, transfer usecase.TransferSink, events usecase.EventSink, logger *zap.Logger) *MySQLLedger {
	if events == nil {
		events = usecase.NopEventSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MySQLLedger{
		client:   client,
		limits:   limits,
		transfer: transfer,
		events:   events,
		logger:   logger.Named("mysql_ledger"),
	}
}

// Init 建立資料表與 ledger_meta，已存在時確認上限一致
func (l *MySQLLedger) Init(ctx context.Context) error {
	db := l.client.DB().WithContext(ctx)
	if err := Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	meta := sqlMeta{
		ID:              metaID,
		WithdrawalLimit: uint64(l.limits.WithdrawalLimit),
		BankCap:         uint64(l.limits.BankCap),
	}
	if err := db.Where(sqlMeta{ID: metaID}).FirstOrCreate(&meta).Error; err != nil {
		return err
	}
	if meta.WithdrawalLimit != uint64(l.limits.WithdrawalLimit) || meta.BankCap != uint64(l.limits.BankCap) {
		return fmt.Errorf("%w: stored limit=%d cap=%d", ErrLimitsMismatch, meta.WithdrawalLimit, meta.BankCap)
	}
	return nil
}

func (l *MySQLLedger) Deposit(ctx context.Context, owner domain.Owner, amount domain.Amount) (*domain.DepositReceipt, error) {
	if amount.IsZero() {
		return nil, domain.ErrZeroAmount
	}
	var receipt *domain.DepositReceipt
	err := l.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meta, err := lockMeta(tx)
		if err != nil {
			return err
		}
		newTotal, ok := domain.Amount(meta.TotalDeposits).Add(amount)
		if !ok || newTotal > domain.Amount(meta.BankCap) {
			return domain.ErrCapacityExceeded
		}
		count, ok := domain.Counter(meta.DepositCount).Inc()
		if !ok {
			return domain.ErrCounterOverflow
		}
		balance, err := lockBalance(tx, owner)
		if err != nil {
			return err
		}
		newBalance := domain.Amount(balance.Balance) + amount

		balance.Balance = uint64(newBalance)
		meta.TotalDeposits = uint64(newTotal)
		meta.DepositCount = uint64(count)
		if err := saveBalance(tx, balance); err != nil {
			return err
		}
		if err := tx.Save(meta).Error; err != nil {
			return err
		}
		receipt = &domain.DepositReceipt{
			ID:         uuid.New(),
			Sequence:   meta.DepositCount + meta.WithdrawalCount,
			Owner:      owner,
			Amount:     amount,
			NewBalance: newBalance,
			CreatedAt:  time.Now().UnixNano(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.events.Record(ctx, domain.Event{
		Sequence:   receipt.Sequence,
		Amount:     amount,
		NewBalance: receipt.NewBalance,
		CreatedAt:  receipt.CreatedAt,
		ID:         receipt.ID,
		Owner:      owner,
		Kind:       domain.EventKindDeposit,
	})
	return receipt, nil
}

func (l *MySQLLedger) Withdraw(ctx context.Context, owner domain.Owner, amount domain.Amount) (*domain.WithdrawalReceipt, error) {
	// 1. 檢查 (順序固定)
	if amount.IsZero() {
		return nil, domain.ErrZeroAmount
	}
	var receipt *domain.WithdrawalReceipt
	transferred := false
	err := l.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meta, err := lockMeta(tx)
		if err != nil {
			return err
		}
		balance, err := lockBalance(tx, owner)
		if err != nil {
			return err
		}
		newBalance, ok := domain.Amount(balance.Balance).Sub(amount)
		if !ok {
			return domain.ErrInsufficientBalance
		}
		if amount > domain.Amount(meta.WithdrawalLimit) {
			return domain.ErrWithdrawalLimitExceeded
		}
		newTotal, ok := domain.Amount(meta.TotalDeposits).Sub(amount)
		if !ok {
			return fmt.Errorf("%w: total deposits below balance of %q", domain.ErrInconsistentState, owner)
		}
		count, ok := domain.Counter(meta.WithdrawalCount).Inc()
		if !ok {
			return domain.ErrCounterOverflow
		}

		// 2. 異動
		balance.Balance = uint64(newBalance)
		meta.TotalDeposits = uint64(newTotal)
		meta.WithdrawalCount = uint64(count)
		if err := saveBalance(tx, balance); err != nil {
			return err
		}
		if err := tx.Save(meta).Error; err != nil {
			return err
		}

		// 3. 轉出 (交易內，失敗則 Rollback)
		if err := l.transfer.Send(ctx, owner, amount); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
		}
		transferred = true
		receipt = &domain.WithdrawalReceipt{
			ID:         uuid.New(),
			Sequence:   meta.DepositCount + meta.WithdrawalCount,
			Owner:      owner,
			Amount:     amount,
			NewBalance: newBalance,
			CreatedAt:  time.Now().UnixNano(),
		}
		return nil
	})
	if err != nil {
		if transferred {
			// 轉出已完成但 Commit 失敗，需人工對帳
			l.logger.Error("withdrawal transferred but commit failed",
				zap.Stringer("owner", owner),
				zap.Uint64("amount", uint64(amount)),
				zap.Error(err),
			)
		}
		return nil, err
	}
	l.events.Record(ctx, domain.Event{
		Sequence:   receipt.Sequence,
		Amount:     amount,
		NewBalance: receipt.NewBalance,
		CreatedAt:  receipt.CreatedAt,
		ID:         receipt.ID,
		Owner:      owner,
		Kind:       domain.EventKindWithdrawal,
	})
	return receipt, nil
}

// BalanceOf 取得擁有者餘額，不存在回傳 0
func (l *MySQLLedger) BalanceOf(ctx context.Context, owner domain.Owner) (domain.Amount, error) {
	var balance sqlBalance
	err := l.client.DB().WithContext(ctx).Where("owner = ?", owner.String()).Take(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return domain.Amount(balance.Balance), nil
}

// Summary 單列讀取，天然是一致的快照
func (l *MySQLLedger) Summary(ctx context.Context) (domain.Summary, error) {
	var meta sqlMeta
	if err := l.client.DB().WithContext(ctx).First(&meta, metaID).Error; err != nil {
		return domain.Summary{}, err
	}
	return domain.Summary{
		TotalDeposits:   domain.Amount(meta.TotalDeposits),
		BankCap:         domain.Amount(meta.BankCap),
		WithdrawalLimit: domain.Amount(meta.WithdrawalLimit),
		DepositCount:    domain.Counter(meta.DepositCount),
		WithdrawalCount: domain.Counter(meta.WithdrawalCount),
	}, nil
}

// lockMeta 悲觀鎖鎖定 ledger_meta
func lockMeta(tx *gorm.DB) (*sqlMeta, error) {
	var meta sqlMeta
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&meta, metaID).Error; err != nil {
		return nil, fmt.Errorf("lock ledger_meta: %w", err)
	}
	return &meta, nil
}

// lockBalance 鎖定擁有者餘額，不存在時回傳餘額 0 的新紀錄
func lockBalance(tx *gorm.DB, owner domain.Owner) (*sqlBalance, error) {
	var balance sqlBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner = ?", owner.String()).
		Take(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &sqlBalance{Owner: owner.String()}, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// saveBalance upsert 擁有者餘額
func saveBalance(tx *gorm.DB, balance *sqlBalance) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(balance).Error
}

var _ usecase.Ledger = (*MySQLLedger)(nil)
