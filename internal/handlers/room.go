package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tims-exe/secure-chat/internal/service"
)

type RoomHandler struct {
	svc *service.RoomService
}

func NewRoomHandler(s *service.RoomService) *RoomHandler { return &RoomHandler{svc: s} }

// Create allocates a fresh room and returns its identifier. No auth: this
// is how a conversation starts.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.Create(r.Context())
	if err != nil {
		log.Printf("Create room error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"roomId": id})
}

// TTL reports the remaining seconds before self-destruct. A room that
// expired between auth and here reads as zero so countdown clients render
// "00:00" instead of faulting.
func (h *RoomHandler) TTL(w http.ResponseWriter, r *http.Request) {
	roomId := normalizeID(chi.URLParam(r, "roomId"))
	ttl, exists, err := h.svc.RemainingTTL(r.Context(), roomId)
	if err != nil {
		log.Printf("TTL error (roomId=%s): %v", roomId, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !exists {
		ttl = 0
	}
	respondJSON(w, http.StatusOK, map[string]any{"ttl": ttl})
}

// Destroy triggers the destroy protocol: broadcast first, then delete
// every record. Safe to repeat.
func (h *RoomHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	roomId := normalizeID(chi.URLParam(r, "roomId"))
	if err := h.svc.Destroy(r.Context(), roomId); err != nil {
		log.Printf("Destroy room error (roomId=%s): %v", roomId, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Enter serves the room entry point behind the admission gate. The UI is
// rendered elsewhere; this returns the minimal state a freshly admitted
// client needs.
func (h *RoomHandler) Enter(w http.ResponseWriter, r *http.Request) {
	roomId := normalizeID(chi.URLParam(r, "roomId"))
	ttl, exists, err := h.svc.RemainingTTL(r.Context(), roomId)
	if err != nil {
		log.Printf("Enter room error (roomId=%s): %v", roomId, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"roomId": roomId, "ttl": ttl})
}
