package http

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/webitel/im-messaging-service/internal/repository"
	"github.com/webitel/im-messaging-service/internal/service"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondError maps domain rejections onto HTTP statuses. Unknown errors
// collapse to 500 without leaking internals.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBlocked),
		errors.Is(err, service.ErrNotParticipant):
		respondJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, repository.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrSelfConversation):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrUnauthenticated):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
