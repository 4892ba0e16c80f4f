package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/wallet-topups/internal/model"
)

const actionTimeout = 30 * time.Second

// loadTopUps fetches the pending queue.
func (m Model) loadTopUps() tea.Cmd {
	ctx, reviewer, limit := m.ctx, m.reviewer, m.config.PageSize
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		topUps, err := reviewer.ListTopUps(ctx, model.TopUpFilter{
			Status: model.StatusPending,
			Limit:  limit,
		})
		return topUpsLoadedMsg{topUps: topUps, err: err}
	}
}

func (m Model) approve(id, targetUserID string) tea.Cmd {
	ctx, reviewer, admin := m.ctx, m.reviewer, m.config.Admin
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		topUp, err := reviewer.Approve(ctx, id, admin, targetUserID)
		return actionDoneMsg{action: actionApprove, topUp: topUp, err: err}
	}
}

func (m Model) reject(id, reason string) tea.Cmd {
	ctx, reviewer, admin := m.ctx, m.reviewer, m.config.Admin
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		topUp, err := reviewer.Reject(ctx, id, admin, reason)
		return actionDoneMsg{action: actionReject, topUp: topUp, err: err}
	}
}
