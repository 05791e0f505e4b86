package mysql

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
)

func TestSQLEventConversion(t *testing.T) {
	e := domain.Event{
		Sequence:   9,
		Amount:     300,
		NewBalance: 700,
		CreatedAt:  1_700_000_000_000,
		ID:         uuid.New(),
		Owner:      "alice",
		Kind:       domain.EventKindWithdrawal,
	}
	row := toSQLEvent(&e)
	assert.Len(t, row.EventID, 16)
	assert.Equal(t, uint8(domain.EventKindWithdrawal), row.Kind)

	got, err := row.toDomain()
	require.NoError(t, err)
	assert.Equal(t, e, got)

	row.EventID = []byte{1, 2, 3}
	_, err = row.toDomain()
	assert.Error(t, err)
}

func TestEventStore_RecordDropsWhenFull(t *testing.T) {
	s := NewEventStore(nil, 1, nil)
	ctx := context.Background()

	s.Record(ctx, domain.Event{Sequence: 1})
	s.Record(ctx, domain.Event{Sequence: 2})
	assert.Equal(t, uint64(1), s.Dropped())
	assert.Len(t, s.events, 1)
	require.NoError(t, s.Close())
}
