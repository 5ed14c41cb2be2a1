package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tims-exe/secure-chat/internal/service"
)

type KeyHandler struct {
	svc *service.KeyExchangeService
}

func NewKeyHandler(s *service.KeyExchangeService) *KeyHandler { return &KeyHandler{svc: s} }

type shareKeyRequest struct {
	Username  string `json:"username"`
	PublicKey string `json:"publicKey"`
}

func (req shareKeyRequest) validate() error {
	if err := validateUsername(req.Username); err != nil {
		return err
	}
	if normalizeID(req.PublicKey) == "" {
		return errors.New("publicKey required")
	}
	return nil
}

// Share publishes the caller's exported public key to the room.
func (h *KeyHandler) Share(w http.ResponseWriter, r *http.Request) {
	roomId := normalizeID(chi.URLParam(r, "roomId"))
	var in shareKeyRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.svc.Share(r.Context(), roomId, normalizeID(in.Username), in.PublicKey)
	if err != nil {
		log.Printf("Share key error (roomId=%s): %v", roomId, err)
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// List returns the room's username → public-key mapping.
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	roomId := normalizeID(chi.URLParam(r, "roomId"))
	keys, err := h.svc.List(r.Context(), roomId)
	if err != nil {
		log.Printf("List keys error (roomId=%s): %v", roomId, err)
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		respondError(w, http.StatusNotFound, "room not found")
	case errors.Is(err, service.ErrRoomFull):
		respondError(w, http.StatusConflict, "room is full")
	case errors.Is(err, service.ErrInvalidSession):
		respondError(w, http.StatusUnauthorized, "invalid session")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
