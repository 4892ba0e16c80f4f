// Package tui implements the interactive review queue for pending top-ups.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// Reviewer is the part of the engine the review screen drives.
type Reviewer interface {
	ListTopUps(ctx context.Context, filter model.TopUpFilter) ([]model.TopUp, error)
	Approve(ctx context.Context, id, reviewer, targetUserID string) (*model.TopUp, error)
	Reject(ctx context.Context, id, reviewer, reason string) (*model.TopUp, error)
}

// State is the current input mode.
type State int

// Available states.
const (
	StateBrowse State = iota
	StateTarget
	StateReject
)

// Model is the bubbletea model for the review queue.
type Model struct {
	ctx      context.Context
	reviewer Reviewer
	lastErr  error
	targets  map[string]string
	keys     KeyMap
	status   string
	config   Config
	topUps   []model.TopUp
	help     help.Model
	input    textinput.Model
	table    table.Model
	state    State
	width    int
	height   int
	approved int
	rejected int
	ready    bool
	quitting bool
}

// New creates a review model. Init loads the queue.
func New(ctx context.Context, reviewer Reviewer, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	input := textinput.New()
	input.CharLimit = 200

	t := table.New(
		table.WithColumns(columns(cfg.Width)),
		table.WithFocused(true),
		table.WithHeight(tableHeight(cfg.Height)),
	)
	styles := table.DefaultStyles()
	styles.Header = cfg.Theme.Header
	styles.Selected = cfg.Theme.Selected
	t.SetStyles(styles)

	return Model{
		ctx:      ctx,
		reviewer: reviewer,
		targets:  map[string]string{},
		config:   cfg,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		input:    input,
		table:    t,
		width:    cfg.Width,
		height:   cfg.Height,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadTopUps()
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(m.width))
		m.table.SetHeight(tableHeight(m.height))
		m.help.Width = m.width
		return m, nil

	case topUpsLoadedMsg:
		m.ready = true
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.topUps = msg.topUps
		m.table.SetRows(rows(msg.topUps))
		if m.table.Cursor() >= len(msg.topUps) {
			m.table.SetCursor(max(len(msg.topUps)-1, 0))
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, m.loadTopUps()
		}
		if msg.action == actionApprove {
			m.approved++
		} else {
			m.rejected++
		}
		m.setStatus(msg.describe())
		return m, m.loadTopUps()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.state != StateBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}

	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		m.setStatus("Reloading queue")
		return m, m.loadTopUps()
	case key.Matches(msg, m.keys.Approve):
		topUp, ok := m.Selected()
		if !ok {
			m.setStatus("Nothing to review")
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Approving %s", cli.ShortID(topUp.ID)))
		return m, m.approve(topUp.ID, m.Target(topUp))
	case key.Matches(msg, m.keys.Target):
		return m.openInput(StateTarget)
	case key.Matches(msg, m.keys.Reject):
		return m.openInput(StateReject)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeInput()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		topUp, ok := m.Selected()
		value := strings.TrimSpace(m.input.Value())
		state := m.state
		m.closeInput()
		if !ok {
			return m, nil
		}
		if state == StateTarget {
			m.targets[topUp.ID] = value
			if value == "" {
				m.setStatus(fmt.Sprintf("%s will be approved without a wallet credit", cli.ShortID(topUp.ID)))
			} else {
				m.setStatus(fmt.Sprintf("%s will credit %s", cli.ShortID(topUp.ID), value))
			}
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Rejecting %s", cli.ShortID(topUp.ID)))
		return m, m.reject(topUp.ID, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) openInput(state State) (tea.Model, tea.Cmd) {
	topUp, ok := m.Selected()
	if !ok {
		m.setStatus("Nothing to review")
		return m, nil
	}

	m.state = state
	m.input.Reset()
	if state == StateTarget {
		m.input.Prompt = "Credit user: "
		m.input.Placeholder = "user id, blank to approve without credit"
		m.input.SetValue(m.Target(topUp))
	} else {
		m.input.Prompt = "Reason: "
		m.input.Placeholder = "optional"
	}
	m.table.Blur()
	return m, m.input.Focus()
}

func (m *Model) closeInput() {
	m.state = StateBrowse
	m.input.Blur()
	m.table.Focus()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.lastErr = nil
}

func (m *Model) setError(err error) {
	m.status = ""
	m.lastErr = err
}

// Selected returns the top-up under the cursor.
func (m Model) Selected() (model.TopUp, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.topUps) {
		return model.TopUp{}, false
	}
	return m.topUps[i], true
}

// Target is the user an approval of t will credit.
func (m Model) Target(t model.TopUp) string {
	if target, ok := m.targets[t.ID]; ok {
		return target
	}
	return t.TargetUserID
}

// State reports the current input mode.
func (m Model) State() State {
	return m.state
}

// Status returns the last toast message.
func (m Model) Status() string {
	return m.status
}

// Err returns the error from the last failed action, if any.
func (m Model) Err() error {
	return m.lastErr
}

// Counts returns how many entries were approved and rejected this session.
func (m Model) Counts() (approved, rejected int) {
	return m.approved, m.rejected
}

func tableHeight(height int) int {
	// title, detail box, input, status and help
	return max(height-14, 3)
}

func columns(width int) []table.Column {
	sender := max(width-70, 12)
	return []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Amount", Width: 14},
		{Title: "Sender", Width: sender},
		{Title: "Reference", Width: 12},
		{Title: "Risk", Width: 19},
		{Title: "Conf", Width: 5},
	}
}

func rows(topUps []model.TopUp) []table.Row {
	out := make([]table.Row, 0, len(topUps))
	for _, t := range topUps {
		out = append(out, table.Row{
			cli.ShortID(t.ID),
			cli.FormatAmount(t),
			t.SenderName,
			t.BankReference,
			string(t.RiskLevel),
			fmt.Sprintf("%.0f%%", t.AIParsedData.Confidence*100),
		})
	}
	return out
}
