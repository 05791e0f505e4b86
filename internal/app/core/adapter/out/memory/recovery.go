package memory

import (
	"encoding/json"
	"fmt"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/pkg/wal"
)

// RecoverState 從 WAL 檔案重放事件，重建帳本狀態
//
// 參數:
//
//	w: 記錄 domain.Event 的 WAL
//	limits: 帳本上限，用於檢查重放結果
//
// 回傳:
//
//	domain.State: 重放後的狀態
//	error: 解析錯誤、序號不連續或狀態違反不變量
func RecoverState(w *wal.WAL, limits domain.Limits) (domain.State, error) {
	state := domain.NewState()

	err := w.ReadAll(func(jsonRaw []byte) error {
		var event domain.Event
		if err := json.Unmarshal(jsonRaw, &event); err != nil {
			return err
		}
		if want := state.Sequence() + 1; event.Sequence != want {
			return fmt.Errorf("%w: expected sequence %d, got %d", domain.ErrInconsistentState, want, event.Sequence)
		}
		return state.Apply(&event)
	})
	if err != nil {
		return domain.State{}, err
	}
	if err := state.Validate(limits); err != nil {
		return domain.State{}, err
	}
	return state, nil
}
