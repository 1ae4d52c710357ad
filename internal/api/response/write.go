package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as a JSON response. Encoding happens before the status
// line is sent, so an unencodable value yields a 500 rather than a
// truncated body.
func JSON(w http.ResponseWriter, status int, data any) {
	body := []byte("null")
	if data != nil {
		var err error
		if body, err = json.Marshal(data); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
