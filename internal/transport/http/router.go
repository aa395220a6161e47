package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"

	"github.com/pacis-link/share-service/internal/transport/ws"
	"github.com/pacis-link/share-service/pkg/httputil"
)

func NewRouter(h *Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httputil.MiddlewareRequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httputil.MiddlewareLogging)
	r.Use(middlewareChi.Recoverer)

	// live event channel
	r.Get("/ws", wsServer.HandleWS)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewareChi.Timeout(30 * time.Second))

		api.Route("/text", func(t chi.Router) {
			t.Get("/list", h.ListText)
			t.Post("/send", h.SendText)
		})
		api.Route("/files", func(f chi.Router) {
			f.Get("/", h.ListFiles)
			f.Post("/upload", h.Upload)
			f.Get("/{id}", h.Download)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
