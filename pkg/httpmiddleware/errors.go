package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/jx"
)

// WriteError writes the API error body {"code","message","requestId"}. The
// request ID is omitted when the request did not pass through RequestID.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	if id := RequestIDFromContext(r.Context()); id != "" {
		e.FieldStart("requestId")
		e.Str(id)
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
