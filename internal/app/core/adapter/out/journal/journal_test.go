package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/JoeShih716/go-custody-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-custody-ledger/pkg/wal"
)

func TestJournalRecord(t *testing.T) {
	w, err := wal.Open(filepath.Join(t.TempDir(), "wal.log"), wal.WithoutSync())
	require.NoError(t, err)
	defer w.Close()

	j := NewJournal(w, zaptest.NewLogger(t))
	in := domain.Event{
		Sequence:   1,
		Amount:     10_000,
		NewBalance: 10_000,
		CreatedAt:  1_700_000_000_000_000_000,
		ID:         uuid.New(),
		Owner:      "A",
		Kind:       domain.EventKindDeposit,
	}
	j.Record(context.Background(), in)

	var got []domain.Event
	require.NoError(t, w.ReadAll(func(raw []byte) error {
		var e domain.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		got = append(got, e)
		return nil
	}))
	require.Len(t, got, 1)
	assert.Equal(t, in, got[0])
	assert.Zero(t, j.Failures())
}

func TestJournalRecordFailureIsCounted(t *testing.T) {
	w, err := wal.Open(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	j := NewJournal(w, nil)
	j.Record(context.Background(), domain.Event{Sequence: 1, Kind: domain.EventKindDeposit})
	assert.Equal(t, uint64(1), j.Failures())
}

func TestJournalFailureReportsNotServing(t *testing.T) {
	ctx := context.Background()
	w, err := wal.Open(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)

	hs := health.NewServer()
	hs.SetServingStatus("ledger.LedgerService", healthpb.HealthCheckResponse_SERVING)
	j := NewJournal(w, zaptest.NewLogger(t), WithHealth(hs, "", "ledger.LedgerService"))

	status := func(svc string) healthpb.HealthCheckResponse_ServingStatus {
		resp, err := hs.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		return resp.Status
	}

	j.Record(ctx, domain.Event{Sequence: 1, Kind: domain.EventKindDeposit, ID: uuid.New()})
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status("ledger.LedgerService"))

	require.NoError(t, w.Close())
	j.Record(ctx, domain.Event{Sequence: 2, Kind: domain.EventKindDeposit, ID: uuid.New()})
	j.Record(ctx, domain.Event{Sequence: 3, Kind: domain.EventKindDeposit, ID: uuid.New()})
	assert.Equal(t, uint64(2), j.Failures())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status("ledger.LedgerService"))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(""))
}
