package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/monday"
)

const defaultPageSize = 50

type statsResponse struct {
	Sync *monday.SyncStats `json:"sync,omitempty"`
	*model.Stats
}

type listResponse struct {
	Items  any `json:"items"`
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type approveRequest struct {
	TargetUserID string `json:"target_user_id"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type walletResponse struct {
	Wallet  *model.Wallet        `json:"wallet"`
	Credits []model.WalletCredit `json:"credits"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := statsResponse{Stats: stats}
	if s.syncStats != nil {
		sync := s.syncStats()
		resp.Sync = &sync
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.TopUpFilter{
		Status: model.TopUpStatus(q.Get("status")),
		Limit:  defaultPageSize,
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), defaultPageSize); err != nil {
		writeError(w, err)
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		writeError(w, err)
		return
	}
	if raw := q.Get("since"); raw != "" {
		since, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			writeError(w, common.Validationf("since must be RFC3339: %v", perr))
			return
		}
		filter.Since = &since
	}

	items, err := s.engine.ListTopUps(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Items:  items,
		Count:  len(items),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (s *Server) handleCreatePending(w http.ResponseWriter, r *http.Request) {
	var in model.ManualTopUp
	if err := decodeJSON(r, &in, false); err != nil {
		writeError(w, err)
		return
	}

	topUp, err := s.engine.CreateManual(r.Context(), in, adminFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	msg := "Top-up added to the pending queue"
	if topUp.RiskLevel != model.RiskClear {
		msg = fmt.Sprintf("%s (flagged %s)", msg, topUp.RiskLevel)
	}
	writeJSON(w, http.StatusCreated, actionResponse{Message: msg, Data: topUp})
}

func (s *Server) handleGetPending(w http.ResponseWriter, r *http.Request) {
	topUp, err := s.engine.GetTopUp(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topUp)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, err)
		return
	}

	topUp, err := s.engine.Approve(r.Context(), chi.URLParam(r, "id"), adminFrom(r.Context()), req.TargetUserID)
	if err != nil {
		writeError(w, err)
		return
	}
	msg := "Top-up approved"
	if topUp.Credited {
		msg = fmt.Sprintf("Top-up approved and %s %s credited to %s",
			topUp.Amount.StringFixed(2), topUp.Currency, topUp.TargetUserID)
	}
	writeJSON(w, http.StatusOK, actionResponse{Message: msg, Data: topUp})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, err)
		return
	}

	topUp, err := s.engine.Reject(r.Context(), chi.URLParam(r, "id"), adminFrom(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Message: "Top-up rejected", Data: topUp})
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, credits, err := s.engine.Wallet(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if credits == nil {
		credits = []model.WalletCredit{}
	}
	writeJSON(w, http.StatusOK, walletResponse{Wallet: wallet, Credits: credits})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, common.Validationf("invalid number %q", raw)
	}
	return n, nil
}
