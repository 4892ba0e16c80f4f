package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

type call struct {
	id       string
	reviewer string
	value    string
}

type fakeReviewer struct {
	listErr  error
	topUps   []model.TopUp
	approved []call
	rejected []call
	mu       sync.Mutex
}

func (f *fakeReviewer) ListTopUps(_ context.Context, filter model.TopUpFilter) ([]model.TopUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.TopUp
	for _, t := range f.topUps {
		if t.Status == filter.Status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeReviewer) resolve(id string, status model.TopUpStatus) (*model.TopUp, error) {
	for i := range f.topUps {
		if f.topUps[i].ID != id {
			continue
		}
		if f.topUps[i].IsResolved() {
			return nil, common.ErrAlreadyResolved
		}
		f.topUps[i].Status = status
		t := f.topUps[i]
		return &t, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeReviewer) Approve(_ context.Context, id, reviewer, target string) (*model.TopUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, call{id: id, reviewer: reviewer, value: target})
	t, err := f.resolve(id, model.StatusApproved)
	if err == nil && target != "" {
		t.TargetUserID = target
		t.Credited = true
	}
	return t, err
}

func (f *fakeReviewer) Reject(_ context.Context, id, reviewer, reason string) (*model.TopUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, call{id: id, reviewer: reviewer, value: reason})
	return f.resolve(id, model.StatusRejected)
}

func pending(id, sender string, amount int64) model.TopUp {
	return model.TopUp{
		ID:            id,
		Amount:        decimal.NewFromInt(amount),
		Currency:      "ILS",
		SenderName:    sender,
		BankReference: "REF-" + id,
		Source:        model.SourceGmail,
		Status:        model.StatusPending,
		RiskLevel:     model.RiskClear,
		ReceivedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		AIParsedData:  model.ParsedData{Method: model.ParseRegex, Confidence: 0.9},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msg to the model and, when follow is set, runs the returned
// command and feeds its result back in.
func send(t *testing.T, m Model, msg tea.Msg, follow bool) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	if follow && cmd != nil {
		return send(t, out, cmd(), false)
	}
	return out
}

// load runs Init and applies the loaded queue.
func load(t *testing.T, m Model) Model {
	t.Helper()
	return send(t, m, m.Init()(), false)
}

func newReviewModel(t *testing.T, f *fakeReviewer) Model {
	t.Helper()
	return load(t, New(context.Background(), f, WithAdmin("alice"), WithSize(120, 40)))
}

func TestModel_LoadsPendingOnly(t *testing.T) {
	done := pending("t3", "Old", 10)
	done.Status = model.StatusApproved
	f := &fakeReviewer{topUps: []model.TopUp{pending("t1", "Dana Cohen", 150), pending("t2", "Noa Levi", 80), done}}

	m := newReviewModel(t, f)

	assert.Len(t, m.topUps, 2)
	selected, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "t1", selected.ID)
	assert.Contains(t, m.View(), "Dana Cohen")
	assert.Contains(t, m.View(), "150.00 ILS")
}

func TestModel_ApproveWithTarget(t *testing.T) {
	f := &fakeReviewer{topUps: []model.TopUp{pending("t1", "Dana Cohen", 150), pending("t2", "Noa Levi", 80)}}
	m := newReviewModel(t, f)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown}, false)
	m = send(t, m, runes("u"), false)
	assert.Equal(t, StateTarget, m.State())

	m = send(t, m, runes("user-9"), false)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, false)
	assert.Equal(t, StateBrowse, m.State())
	assert.Contains(t, m.Status(), "will credit user-9")
	assert.Empty(t, f.approved)

	m = send(t, m, runes("a"), true)
	require.Len(t, f.approved, 1)
	assert.Equal(t, call{id: "t2", reviewer: "alice", value: "user-9"}, f.approved[0])
	assert.Contains(t, m.Status(), "credited user-9")

	approved, rejected := m.Counts()
	assert.Equal(t, 1, approved)
	assert.Equal(t, 0, rejected)
}

func TestModel_RejectWithReason(t *testing.T) {
	f := &fakeReviewer{topUps: []model.TopUp{pending("t1", "Dana Cohen", 150)}}
	m := newReviewModel(t, f)

	m = send(t, m, runes("r"), false)
	assert.Equal(t, StateReject, m.State())
	m = send(t, m, runes("dup of yesterday"), false)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, true)

	require.Len(t, f.rejected, 1)
	assert.Equal(t, "dup of yesterday", f.rejected[0].value)
	assert.Contains(t, m.Status(), "Rejected 150.00 ILS")

	// the reload after the action empties the queue
	m = load(t, m)
	assert.Empty(t, m.topUps)
	assert.Contains(t, m.View(), "queue is empty")
}

func TestModel_ApproveWithoutTarget(t *testing.T) {
	f := &fakeReviewer{topUps: []model.TopUp{pending("t1", "Dana Cohen", 150)}}
	m := newReviewModel(t, f)

	m = send(t, m, runes("a"), true)

	require.Len(t, f.approved, 1)
	assert.Empty(t, f.approved[0].value)
	assert.Contains(t, m.Status(), "no wallet credited")
}

func TestModel_CancelInput(t *testing.T) {
	f := &fakeReviewer{topUps: []model.TopUp{pending("t1", "Dana Cohen", 150)}}
	m := newReviewModel(t, f)

	m = send(t, m, runes("r"), false)
	m = send(t, m, runes("q"), false)
	assert.Equal(t, StateReject, m.State(), "q types into the input instead of quitting")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc}, false)
	assert.Equal(t, StateBrowse, m.State())
	assert.Empty(t, f.rejected)
}

func TestModel_ActionErrorsShowInStatusLine(t *testing.T) {
	f := &fakeReviewer{topUps: []model.TopUp{pending("t1", "Dana Cohen", 150)}}
	m := newReviewModel(t, f)

	// resolve behind the screen's back so the approve hits a conflict
	f.topUps[0].Status = model.StatusRejected

	m = send(t, m, runes("a"), true)

	require.Error(t, m.Err())
	assert.True(t, errors.Is(m.Err(), common.ErrAlreadyResolved))
	assert.Contains(t, m.View(), "already")
}

func TestModel_LoadError(t *testing.T) {
	f := &fakeReviewer{listErr: errors.New("database is locked")}
	m := newReviewModel(t, f)

	assert.EqualError(t, m.Err(), "database is locked")
	assert.NotContains(t, m.View(), "Loading")
}

func TestModel_KeysWithEmptyQueue(t *testing.T) {
	m := newReviewModel(t, &fakeReviewer{})

	m = send(t, m, runes("a"), false)
	assert.Equal(t, StateBrowse, m.State())
	assert.Equal(t, "Nothing to review", m.Status())

	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.View())
}

func TestModel_WindowResize(t *testing.T) {
	f := &fakeReviewer{topUps: []model.TopUp{pending("t1", "Dana Cohen", 150)}}
	m := newReviewModel(t, f)

	m = send(t, m, tea.WindowSizeMsg{Width: 60, Height: 10}, false)
	assert.Equal(t, 3, m.table.Height())
	assert.NotEmpty(t, m.View())
}

func TestRun_RequiresReviewer(t *testing.T) {
	_, err := Run(context.Background(), nil)
	assert.Error(t, err)
}
