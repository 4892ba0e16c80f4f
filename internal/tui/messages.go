package tui

import (
	"fmt"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/model"
)

type topUpsLoadedMsg struct {
	err    error
	topUps []model.TopUp
}

type action int

const (
	actionApprove action = iota
	actionReject
)

type actionDoneMsg struct {
	err    error
	topUp  *model.TopUp
	action action
}

// describe renders the toast shown after an action completes.
func (m actionDoneMsg) describe() string {
	t := m.topUp
	switch {
	case m.action == actionReject:
		return fmt.Sprintf("Rejected %s from %s", cli.FormatAmount(*t), t.SenderName)
	case t.Credited:
		return fmt.Sprintf("Approved %s and credited %s", cli.FormatAmount(*t), t.TargetUserID)
	default:
		return fmt.Sprintf("Approved %s (no wallet credited)", cli.FormatAmount(*t))
	}
}
