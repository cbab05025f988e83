package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Message string
	// Error carries the underlying diagnostic, if any.
	Error string
}

// Encode writes the response as {"message": ..., "error": ...}, omitting an
// empty error.
func (s ErrorResponse) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("message")
	e.Str(s.Message)
	if s.Error != "" {
		e.FieldStart("error")
		e.Str(s.Error)
	}
	e.ObjEnd()
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// The status line is already sent; a failed write means the client left.
	_, _ = w.Write(e.Bytes())
}

// writeError logs err at a level matching status and writes an ErrorResponse.
// For 5xx responses the error text is always included as the diagnostic.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}

	lg := zctx.From(r.Context())
	if status >= http.StatusInternalServerError {
		lg.Error(message, zap.Int("status", status), zap.Error(err))
	} else {
		lg.Warn(message, zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, resp.Encode)
}
