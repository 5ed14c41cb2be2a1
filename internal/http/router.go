package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tims-exe/secure-chat/internal/handlers"
)

func NewRouter(
	rooms *handlers.RoomHandler,
	keys *handlers.KeyHandler,
	messages *handlers.MessageHandler,
	ws *handlers.WebSocketHandler,
	gate *handlers.AdmissionGate,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/api/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Post("/api/room/create", rooms.Create)

	r.Route("/api/room/{roomId}", func(r chi.Router) {
		r.Use(gate.RequireSession)
		r.Get("/ttl", rooms.TTL)
		r.Delete("/", rooms.Destroy)
		r.Post("/keys", keys.Share)
		r.Get("/keys", keys.List)
		r.Post("/messages", messages.Post)
		r.Get("/messages", messages.List)
		r.Get("/ws", ws.HandleWebSocket)
	})

	// room entry point: the admission gate runs before the page is served
	r.Route("/room/{roomId}", func(r chi.Router) {
		r.Use(gate.Gate)
		r.Get("/", rooms.Enter)
	})

	return r
}
