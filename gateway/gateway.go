// Package gateway holds the HTTP clients for the external calendar and
// resource directory services. Both are treated as unreliable remote
// collaborators: responses are translated into the apperrors taxonomy at
// this boundary and nothing upstream is assumed to be immediately
// consistent.
package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/roomly/roomly-be/apperrors"
)

// translateStatus maps an upstream HTTP status onto the error taxonomy.
// Anything unrecognized becomes an internal server error.
func translateStatus(op string, status int, body []byte) error {
	var r struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &r)
	msg := r.Error
	if msg == "" {
		msg = r.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("%s failed (status=%d)", op, status)
	}

	switch status {
	case http.StatusBadRequest:
		return apperrors.BadRequest("%s", msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Unauthorized("%s", msg)
	case http.StatusNotFound:
		return apperrors.NotFound("%s", msg)
	case http.StatusConflict:
		return apperrors.Conflict("%s", msg)
	default:
		return apperrors.Internal(msg, nil)
	}
}
