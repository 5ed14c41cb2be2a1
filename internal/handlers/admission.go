package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tims-exe/secure-chat/internal/service"
)

// SessionCookie is the cookie carrying the room session token.
const SessionCookie = "x-auth-token"

// cookieMaxAge keeps the credential on the client well past any room TTL;
// server-side validity always ends when the room dies.
const cookieMaxAge = 30 * 24 * 60 * 60

// AdmissionGate runs in front of room entry, independent of the JSON API:
// it rejects missing rooms, lets preview bots through without a token,
// re-admits returning participants, and binds new participants to one of
// the two slots.
type AdmissionGate struct {
	svc          *service.AdmissionService
	cookieSecure bool
}

func NewAdmissionGate(svc *service.AdmissionService, cookieSecure bool) *AdmissionGate {
	return &AdmissionGate{svc: svc, cookieSecure: cookieSecure}
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (g *AdmissionGate) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/", // whole origin, not just the room path
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   g.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Gate is the middleware form of the admission sequence.
func (g *AdmissionGate) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomId := normalizeID(chi.URLParam(r, "roomId"))
		if err := validateRoomId(roomId); err != nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		decision, token, err := g.svc.Admit(r.Context(), roomId, sessionToken(r), r.UserAgent())
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			http.Redirect(w, r, "/?error=room-not-found", http.StatusFound)
			return
		case errors.Is(err, service.ErrRoomFull):
			http.Redirect(w, r, "/?error=room-full", http.StatusFound)
			return
		case err != nil:
			log.Printf("Admission error (roomId=%s): %v", roomId, err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if decision == service.AdmitNewToken {
			g.setSessionCookie(w, token)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession protects the JSON API: the caller's cookie token must
// hold one of the room's slots.
func (g *AdmissionGate) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomId := normalizeID(chi.URLParam(r, "roomId"))
		if err := validateRoomId(roomId); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		err := g.svc.Authenticate(r.Context(), roomId, sessionToken(r))
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			respondError(w, http.StatusNotFound, "room not found")
			return
		case errors.Is(err, service.ErrInvalidSession):
			respondError(w, http.StatusUnauthorized, "invalid session")
			return
		case err != nil:
			log.Printf("Session check error (roomId=%s): %v", roomId, err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		next.ServeHTTP(w, r)
	})
}
