package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/internal/app/core/usecase"
)

// callKey 標記 context 正在某個帳本的提款轉出中，用於偵測重入
type callKey struct {
	ledger *MutexLedger
}

// MutexLedger 是一個使用 Mutex 實現的帳本
//
// 結構:
//
//	writeMu: 序列化存款/提款，持有至轉出完成為止
//	mu: 保護已提交的帳本狀態，查詢只拿讀鎖
//	balances: 擁有者餘額 Map，不存在代表 0
//	transfer: 提款時實際轉出的外部機制
//	events: 狀態變更紀錄
type MutexLedger struct {
	limits domain.Limits

	writeMu sync.Mutex
	mu      sync.RWMutex

	balances        map[domain.Owner]domain.Amount
	totalDeposits   domain.Amount
	depositCount    domain.Counter
	withdrawalCount domain.Counter

	transfer usecase.TransferSink
	events   usecase.EventSink
	logger   *zap.Logger
	now      func() time.Time
}

// Option MutexLedger 的設定選項
type Option func(*MutexLedger)

// WithState 以既有狀態 (如 journal 重放結果) 啟動帳本
func WithState(state domain.State) Option {
	return func(m *MutexLedger) {
		m.balances = maps.Clone(state.Balances)
		m.totalDeposits = state.TotalDeposits
		m.depositCount = state.DepositCount
		m.withdrawalCount = state.WithdrawalCount
	}
}

// WithLogger 設定 logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *MutexLedger) {
		m.logger = logger
	}
}

// WithClock 設定取得時間的函式 (測試用)
func WithClock(now func() time.Time) Option {
	return func(m *MutexLedger) {
		m.now = now
	}
}

// NewMutexLedger 建立一個新的 MutexLedger 實例
//
// 參數:
//
//	limits: 單筆提款上限與銀行總額上限，建立後不可變更
//	transfer: 提款轉出機制 (必填)
//	events: 事件紀錄，nil 代表不紀錄
//	opts: 其他選項
//
// 回傳:
//
//	*MutexLedger: MutexLedger 實例
//	error: 初始化錯誤 (如還原狀態違反不變量)
func NewMutexLedger(limits domain.Limits, transfer usecase.TransferSink, events usecase.EventSink, opts ...Option) (*MutexLedger, error) {
	if transfer == nil {
		return nil, errors.New("memory: transfer sink is required")
	}
	if events == nil {
		events = usecase.NopEventSink{}
	}
	ledger := &MutexLedger{
		limits:   limits,
		balances: make(map[domain.Owner]domain.Amount),
		transfer: transfer,
		events:   events,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ledger)
	}
	if ledger.balances == nil {
		ledger.balances = make(map[domain.Owner]domain.Amount)
	}
	state := ledger.State()
	if err := state.Validate(limits); err != nil {
		return nil, err
	}
	ledger.logger = ledger.logger.Named("ledger")
	return ledger, nil
}

// Deposit 存款 (驗證完成後才異動狀態)
//
// 參數:
//
//	ctx: 上下文，只往 EventSink 傳遞
//	owner: 擁有者
//	amount: 金額，應已由呼叫端先行收妥
//
// 回傳:
//
//	*domain.DepositReceipt: 收據，含新餘額
//	error: ErrZeroAmount, ErrCapacityExceeded
func (m *MutexLedger) Deposit(ctx context.Context, owner domain.Owner, amount domain.Amount) (*domain.DepositReceipt, error) {
	if m.isReentrant(ctx) {
		return nil, domain.ErrReentrantCall
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	// 1. 檢查
	if amount.IsZero() {
		return nil, domain.ErrZeroAmount
	}
	newTotal, ok := m.totalDeposits.Add(amount)
	if !ok || newTotal > m.limits.BankCap {
		return nil, domain.ErrCapacityExceeded
	}
	count, ok := m.depositCount.Inc()
	if !ok {
		return nil, domain.ErrCounterOverflow
	}
	// 單一餘額 <= 總額，newTotal 沒溢位則這裡也不會
	newBalance := m.balances[owner] + amount

	// 2. 異動
	m.mu.Lock()
	m.balances[owner] = newBalance
	m.totalDeposits = newTotal
	m.depositCount = count
	seq := m.sequenceLocked()
	m.mu.Unlock()

	// 3. 紀錄
	event := m.newEvent(domain.EventKindDeposit, seq, owner, amount, newBalance)
	m.events.Record(ctx, event)

	return &domain.DepositReceipt{
		ID:         event.ID,
		Sequence:   seq,
		Owner:      owner,
		Amount:     amount,
		NewBalance: newBalance,
		CreatedAt:  event.CreatedAt,
	}, nil
}

// Withdraw 提款 (checks-effects-interactions)
//
// 在 writeMu 內先檢查、再算出異動後的狀態、最後呼叫 TransferSink 轉出。
// 異動在轉出成功後才寫入 mu 保護的欄位，因此查詢 (包含轉出中的回呼)
// 只會看到呼叫前或提交後的狀態；轉出失敗或 panic 時帳本維持原狀。
//
// 回傳:
//
//	*domain.WithdrawalReceipt: 收據，含新餘額
//	error: ErrZeroAmount, ErrInsufficientBalance, ErrWithdrawalLimitExceeded, ErrTransferFailed
func (m *MutexLedger) Withdraw(ctx context.Context, owner domain.Owner, amount domain.Amount) (*domain.WithdrawalReceipt, error) {
	if m.isReentrant(ctx) {
		return nil, domain.ErrReentrantCall
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	// 1. 檢查 (順序固定)
	if amount.IsZero() {
		return nil, domain.ErrZeroAmount
	}
	newBalance, ok := m.balances[owner].Sub(amount)
	if !ok {
		return nil, domain.ErrInsufficientBalance
	}
	if amount > m.limits.WithdrawalLimit {
		return nil, domain.ErrWithdrawalLimitExceeded
	}
	newTotal, ok := m.totalDeposits.Sub(amount)
	if !ok {
		return nil, fmt.Errorf("%w: total deposits below balance of %q", domain.ErrInconsistentState, owner)
	}
	count, ok := m.withdrawalCount.Inc()
	if !ok {
		return nil, domain.ErrCounterOverflow
	}

	// 2. 異動 (在轉出之前算好，writeMu 保證期間沒有其他異動)
	staged := withdrawal{
		owner:      owner,
		newBalance: newBalance,
		newTotal:   newTotal,
		count:      count,
	}

	// 3. 轉出
	if err := m.transfer.Send(context.WithValue(ctx, callKey{ledger: m}, true), owner, amount); err != nil {
		m.logger.Warn("transfer failed, withdrawal discarded",
			zap.Stringer("owner", owner),
			zap.Uint64("amount", uint64(amount)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}

	// 4. 提交
	seq := m.commitWithdrawal(staged)

	// 5. 紀錄 (轉出成功後)
	event := m.newEvent(domain.EventKindWithdrawal, seq, owner, amount, newBalance)
	m.events.Record(ctx, event)

	return &domain.WithdrawalReceipt{
		ID:         event.ID,
		Sequence:   seq,
		Owner:      owner,
		Amount:     amount,
		NewBalance: newBalance,
		CreatedAt:  event.CreatedAt,
	}, nil
}

// withdrawal 已通過檢查、尚未提交的提款
type withdrawal struct {
	owner      domain.Owner
	newBalance domain.Amount
	newTotal   domain.Amount
	count      domain.Counter
}

// commitWithdrawal 一次寫入提款的所有異動，回傳事件序號
func (m *MutexLedger) commitWithdrawal(w withdrawal) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.newBalance.IsZero() {
		delete(m.balances, w.owner)
	} else {
		m.balances[w.owner] = w.newBalance
	}
	m.totalDeposits = w.newTotal
	m.withdrawalCount = w.count
	return m.sequenceLocked()
}

// BalanceOf 取得擁有者餘額，不存在回傳 0，不會失敗
func (m *MutexLedger) BalanceOf(_ context.Context, owner domain.Owner) (domain.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[owner], nil
}

// Summary 取得五個欄位的一致性快照
func (m *MutexLedger) Summary(_ context.Context) (domain.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.Summary{
		TotalDeposits:   m.totalDeposits,
		BankCap:         m.limits.BankCap,
		WithdrawalLimit: m.limits.WithdrawalLimit,
		DepositCount:    m.depositCount,
		WithdrawalCount: m.withdrawalCount,
	}, nil
}

// WithdrawalLimit 單筆提款上限
func (m *MutexLedger) WithdrawalLimit() domain.Amount {
	return m.limits.WithdrawalLimit
}

// BankCap 銀行總額上限
func (m *MutexLedger) BankCap() domain.Amount {
	return m.limits.BankCap
}

// TotalDeposits 目前總存款
func (m *MutexLedger) TotalDeposits() domain.Amount {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDeposits
}

// DepositCount 成功存款次數
func (m *MutexLedger) DepositCount() domain.Counter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.depositCount
}

// WithdrawalCount 成功提款次數
func (m *MutexLedger) WithdrawalCount() domain.Counter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.withdrawalCount
}

// State 回傳目前狀態的複本
func (m *MutexLedger) State() domain.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.State{
		Balances:        maps.Clone(m.balances),
		TotalDeposits:   m.totalDeposits,
		DepositCount:    m.depositCount,
		WithdrawalCount: m.withdrawalCount,
	}
}

func (m *MutexLedger) isReentrant(ctx context.Context) bool {
	return ctx != nil && ctx.Value(callKey{ledger: m}) != nil
}

// sequenceLocked 呼叫端需持有 mu
func (m *MutexLedger) sequenceLocked() uint64 {
	return uint64(m.depositCount) + uint64(m.withdrawalCount)
}

func (m *MutexLedger) newEvent(kind domain.EventKind, seq uint64, owner domain.Owner, amount, newBalance domain.Amount) domain.Event {
	return domain.Event{
		Sequence:   seq,
		Amount:     amount,
		NewBalance: newBalance,
		CreatedAt:  m.now().UnixNano(),
		ID:         uuid.New(),
		Owner:      owner,
		Kind:       kind,
	}
}

var _ usecase.Ledger = (*MutexLedger)(nil)
