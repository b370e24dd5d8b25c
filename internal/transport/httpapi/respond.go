package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/roach88/diary/internal/ir"
)

// maxBodyBytes bounds mutation request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// fail maps an error to a response. Diary errors become 400 with their
// code; anything else is logged and reported as INTERNAL.
func (s *server) fail(w http.ResponseWriter, err error) {
	var de *ir.Error
	if errors.As(err, &de) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    string(de.Code),
			Message: de.Message,
			Details: de.Details,
		}})
		return
	}

	s.logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

// decodeBody strictly decodes a JSON request body.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ir.NewError(ir.CodeInvalidArgument, "request body is required")
		}
		return ir.NewError(ir.CodeInvalidArgument, "invalid request body: %v", err)
	}
	return nil
}
