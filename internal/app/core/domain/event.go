package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind 事件類型
// 為了節省記憶體，使用 uint8
type EventKind uint8

const (
	// 存款
	EventKindDeposit EventKind = 1
	// 提款
	EventKindWithdrawal EventKind = 2
)

// String implements fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case EventKindDeposit:
		return "deposit"
	case EventKindWithdrawal:
		return "withdrawal"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Event 帳本狀態變更紀錄，交給 EventSink 做稽核或廣播
type Event struct {
	// Sequence: 全局順序號 (存款數 + 提款數)，用於重放時確認順序
	Sequence uint64
	// Amount: 本次異動金額
	Amount Amount
	// NewBalance: 異動後的擁有者餘額
	NewBalance Amount
	// CreatedAt: Unix 奈秒
	CreatedAt int64
	// ID: 事件追蹤號，與回傳的收據相同
	ID    uuid.UUID
	Owner Owner
	Kind  EventKind
}

// Time 回傳事件時間
func (e *Event) Time() time.Time {
	return time.Unix(0, e.CreatedAt)
}
