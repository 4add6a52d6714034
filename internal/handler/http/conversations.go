package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/domain/model"
)

type settingsResponse struct {
	UserID              string `json:"user_id"`
	IsMuted             bool   `json:"is_muted"`
	IsFavourite         bool   `json:"is_favourite"`
	DisappearingSeconds int64  `json:"disappearing_seconds"`
}

func mapSettings(s model.ParticipantSettings) settingsResponse {
	return settingsResponse{
		UserID:              s.UserID.String(),
		IsMuted:             s.IsMuted,
		IsFavourite:         s.IsFavourite,
		DisappearingSeconds: s.DisappearingSeconds,
	}
}

func pathUUID(r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	return id, err == nil
}

func (h *APIHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	otherID, ok := pathUUID(r, "otherID")
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed conversation id"})
		return
	}

	settings, err := h.policy.GetSettings(r.Context(), callerID(r), otherID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapSettings(settings))
}

func (h *APIHandler) toggleMute(w http.ResponseWriter, r *http.Request) {
	otherID, ok := pathUUID(r, "otherID")
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed conversation id"})
		return
	}

	settings, err := h.policy.ToggleMute(r.Context(), callerID(r), otherID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapSettings(settings))
}

func (h *APIHandler) toggleFavourite(w http.ResponseWriter, r *http.Request) {
	otherID, ok := pathUUID(r, "otherID")
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed conversation id"})
		return
	}

	settings, err := h.policy.ToggleFavourite(r.Context(), callerID(r), otherID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapSettings(settings))
}

type disappearingRequest struct {
	Seconds int64 `json:"seconds"`
}

func (h *APIHandler) setDisappearing(w http.ResponseWriter, r *http.Request) {
	otherID, ok := pathUUID(r, "otherID")
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed conversation id"})
		return
	}

	var req disappearingRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}

	settings, err := h.policy.SetDisappearingTimer(r.Context(), callerID(r), otherID, req.Seconds)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mapSettings(settings))
}

type blockResponse struct {
	Blocked bool `json:"blocked"`
}

func (h *APIHandler) toggleBlock(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathUUID(r, "targetID")
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed user id"})
		return
	}

	blocked, err := h.policy.ToggleBlock(r.Context(), callerID(r), targetID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, blockResponse{Blocked: blocked})
}
