package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tims-exe/secure-chat/internal/service"
)

type MessageHandler struct {
	svc *service.MessageService
}

func NewMessageHandler(s *service.MessageService) *MessageHandler {
	return &MessageHandler{svc: s}
}

type postMessageRequest struct {
	Sender     string `json:"sender"`
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
}

func (req postMessageRequest) validate() error {
	if err := validateUsername(req.Sender); err != nil {
		return err
	}
	if req.Ciphertext == "" {
		return errors.New("ciphertext required")
	}
	if req.IV == "" {
		return errors.New("iv required")
	}
	return nil
}

// Post appends a ciphertext envelope to the room's message log.
func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	roomId := normalizeID(chi.URLParam(r, "roomId"))
	var in postMessageRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	env, err := h.svc.Post(r.Context(), roomId, sessionToken(r), normalizeID(in.Sender), in.Ciphertext, in.IV)
	if err != nil {
		log.Printf("Post message error (roomId=%s): %v", roomId, err)
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": env.ID})
}

// List returns the append-ordered message log, with the owning token
// visible only on the caller's own envelopes.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	roomId := normalizeID(chi.URLParam(r, "roomId"))
	envs, err := h.svc.List(r.Context(), roomId, sessionToken(r))
	if err != nil {
		log.Printf("List messages error (roomId=%s): %v", roomId, err)
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": envs})
}
