package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Veraticus/wallet-topups/internal/common"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorMessage writes a JSON error response.
func writeErrorMessage(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    kind,
		},
	})
}

// writeError maps err onto a status code and error type.
func writeError(w http.ResponseWriter, err error) {
	kind := common.ErrorKind(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeErrorMessage(w, status, kind, msg)
}

func statusFor(kind string) int {
	switch kind {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindAlreadyResolved:
		return http.StatusConflict
	case common.KindExternalService:
		return http.StatusBadGateway
	case common.KindConfig:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst unchanged
// when optional is true.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return common.Validationf("request body is required")
		}
		return common.Validationf("invalid JSON body: %v", err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", common.ErrValidation)
	}
	return nil
}

// actionResponse is the toast-style result of an admin action.
type actionResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}
