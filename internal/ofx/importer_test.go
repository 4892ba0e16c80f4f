package ofx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/engine"
	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/testutil"
)

type stubQueue struct {
	createErr error
	refs      map[string]bool
	created   []model.ManualTopUp
}

func (q *stubQueue) ReferenceExists(_ context.Context, ref string) (bool, error) {
	return q.refs[ref], nil
}

func (q *stubQueue) CreateManual(_ context.Context, in model.ManualTopUp, _ string) (*model.TopUp, error) {
	if q.createErr != nil {
		return nil, q.createErr
	}
	q.created = append(q.created, in)
	return &model.TopUp{RiskLevel: model.RiskClear}, nil
}

func credit(fitid, sender, amount string) Credit {
	return Credit{
		FITID:    fitid,
		Sender:   sender,
		Amount:   decimal.RequireFromString(amount),
		Currency: "ILS",
		PostedAt: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
	}
}

func TestImporter_SkipsKnownReferences(t *testing.T) {
	queue := &stubQueue{refs: map[string]bool{"A1": true}}
	progress := 0
	imp := NewImporter(queue, common.DiscardLogger())
	imp.Progress = func() { progress++ }

	result, err := imp.Import(context.Background(), []Credit{
		credit("A1", "Dana", "10"),
		credit("B2", "Noa", "20"),
	}, "import:statement.ofx")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, progress)
	require.Len(t, queue.created, 1)
	assert.Equal(t, "B2", queue.created[0].BankReference)
	require.NotNil(t, queue.created[0].ReceivedAt)
}

func TestImporter_Errors(t *testing.T) {
	tests := []struct {
		err         error
		name        string
		wantErr     bool
		wantInvalid int
	}{
		{name: "validation counted", err: common.Validationf("sender_name is required"), wantInvalid: 1},
		{name: "storage failure stops", err: errors.New("disk I/O error"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := NewImporter(&stubQueue{createErr: tt.err}, common.DiscardLogger())
			result, err := imp.Import(context.Background(), []Credit{credit("C3", "", "5")}, "cli")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantInvalid, result.Invalid)
			assert.Len(t, result.Errors, tt.wantInvalid)
		})
	}
}

func TestImporter_EndToEnd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := engine.New(db.Storage, engine.WithLogger(common.DiscardLogger()))

	credits, err := NewParser().ParseCredits(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)

	imp := NewImporter(eng, common.DiscardLogger())
	first, err := imp.Import(context.Background(), credits, "import")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	again, err := imp.Import(context.Background(), credits, "import")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 2, again.Skipped)

	pending, err := eng.ListTopUps(context.Background(), model.TopUpFilter{Status: model.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, p := range pending {
		assert.Equal(t, model.SourceManual, p.Source)
	}
}
