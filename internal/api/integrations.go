package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/engine"
	"github.com/Veraticus/wallet-topups/internal/model"
)

type testBoardRequest struct {
	APIToken string `json:"api_token"`
}

func (s *Server) handleGmailStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.GmailStatus(r.Context()))
}

func (s *Server) handleGmailProcess(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.TryScan(r.Context())
	if errors.Is(err, engine.ErrScanInProgress) {
		writeErrorMessage(w, http.StatusConflict, "scan_in_progress", err.Error())
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	msg := fmt.Sprintf("Scanned %d messages: %d new, %d auto-approved, %d failed",
		result.Listed, result.Created, result.AutoApproved, result.Failed)
	writeJSON(w, http.StatusOK, actionResponse{Message: msg, Data: result})
}

func (s *Server) handleGmailProcessed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), defaultPageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	filter := model.LogFilter{Limit: limit, Outcome: model.Outcome(q.Get("outcome"))}
	switch filter.Outcome {
	case "", model.OutcomeCreatedPending, model.OutcomeAutoApproved,
		model.OutcomeRejectedByRules, model.OutcomeSkippedNotTransaction:
	default:
		writeError(w, common.Validationf("unknown outcome %q", filter.Outcome))
		return
	}

	entries, err := s.engine.ProcessingLog(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: entries, Count: len(entries), Limit: limit})
}

// boardDirectory builds a client from the stored token.
func (s *Server) boardDirectory(r *http.Request) (BoardDirectory, error) {
	cfg, err := s.engine.BoardCredentials(r.Context())
	if err != nil {
		return nil, err
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("%w: monday.com API token is not set", common.ErrMissingConfig)
	}
	return s.boards(cfg.APIToken), nil
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	dir, err := s.boardDirectory(r)
	if err != nil {
		writeError(w, err)
		return
	}
	boards, err := dir.ListBoards(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: boards, Count: len(boards)})
}

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	dir, err := s.boardDirectory(r)
	if err != nil {
		writeError(w, err)
		return
	}
	columns, err := dir.ListColumns(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: columns, Count: len(columns)})
}

// handleTestBoard checks a token before it is saved, or the stored one.
func (s *Server) handleTestBoard(w http.ResponseWriter, r *http.Request) {
	var req testBoardRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, err)
		return
	}

	var dir BoardDirectory
	if req.APIToken != "" && req.APIToken != model.MaskedToken {
		dir = s.boards(req.APIToken)
	} else {
		var err error
		if dir, err = s.boardDirectory(r); err != nil {
			writeError(w, err)
			return
		}
	}

	account, err := dir.TestConnection(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Message: fmt.Sprintf("Connected to monday.com as %s", account.Name),
		Data:    account,
	})
}
