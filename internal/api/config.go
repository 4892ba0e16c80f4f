package api

import "net/http"

// Config updates are read-modify-write: fields missing from the body keep
// their stored values.

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.engine.Rules(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutRules(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.engine.Rules(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeJSON(r, cfg, false); err != nil {
		writeError(w, err)
		return
	}

	saved, err := s.engine.SaveRules(r.Context(), cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Message: "Rules saved", Data: saved})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.engine.Settings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.engine.Settings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decodeJSON(r, settings, false); err != nil {
		writeError(w, err)
		return
	}

	saved, err := s.engine.SaveSettings(r.Context(), settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Message: "Settings saved", Data: saved})
}

func (s *Server) handleGetBoardConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.engine.BoardConfig(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutBoardConfig(w http.ResponseWriter, r *http.Request) {
	current, err := s.engine.BoardConfig(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	cfg := *current
	cfg.ColumnMapping = nil
	if err := decodeJSON(r, &cfg, false); err != nil {
		writeError(w, err)
		return
	}
	if cfg.ColumnMapping == nil {
		cfg.ColumnMapping = current.ColumnMapping
	}

	saved, err := s.engine.SaveBoardConfig(r.Context(), &cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Message: "Board sync configuration saved", Data: saved})
}
