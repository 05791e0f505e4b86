package mysql

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
)

// metaID ledger_meta 只有一列
const metaID = 1

// sqlMeta 對應資料庫的 ledger_meta 表 (上限與總計)
type sqlMeta struct {
	ID              int64 `gorm:"primaryKey;autoIncrement:false"`
	WithdrawalLimit uint64
	BankCap         uint64
	TotalDeposits   uint64
	DepositCount    uint64
	WithdrawalCount uint64
	UpdatedAt       int64 `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlMeta) TableName() string {
	return "ledger_meta"
}

// sqlBalance 對應資料庫的 ledger_balances 表
type sqlBalance struct {
	Owner     string `gorm:"primaryKey;size:128"`
	Balance   uint64
	UpdatedAt int64 `gorm:"autoUpdateTime:milli"`
}

func (*sqlBalance) TableName() string {
	return "ledger_balances"
}

// sqlEvent 對應資料庫的 ledger_events 表
type sqlEvent struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	EventID    []byte `gorm:"column:event_id;type:binary(16);uniqueIndex"` // 對應 domain.Event.ID
	Sequence   uint64 `gorm:"uniqueIndex"`
	Kind       uint8
	Owner      string `gorm:"size:128;index"`
	Amount     uint64
	NewBalance uint64
	CreatedAt  int64
}

func (*sqlEvent) TableName() string {
	return "ledger_events"
}

func toSQLEvent(e *domain.Event) *sqlEvent {
	return &sqlEvent{
		EventID:    e.ID[:],
		Sequence:   e.Sequence,
		Kind:       uint8(e.Kind),
		Owner:      e.Owner.String(),
		Amount:     uint64(e.Amount),
		NewBalance: uint64(e.NewBalance),
		CreatedAt:  e.CreatedAt,
	}
}

func (s *sqlEvent) toDomain() (domain.Event, error) {
	id, err := uuid.FromBytes(s.EventID)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.Event{
		Sequence:   s.Sequence,
		Amount:     domain.Amount(s.Amount),
		NewBalance: domain.Amount(s.NewBalance),
		CreatedAt:  s.CreatedAt,
		ID:         id,
		Owner:      domain.Owner(s.Owner),
		Kind:       domain.EventKind(s.Kind),
	}, nil
}

// Migrate 建立或更新資料表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&sqlMeta{}, &sqlBalance{}, &sqlEvent{})
}
