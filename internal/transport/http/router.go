package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/chat-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, verifier httpmw.TokenVerifier, cookieName string, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint: допуск проверяется внутри (header -> query -> cookie)
	r.Get("/ws", wsServer.HandleWS)

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmw.AuthMiddleware(verifier, cookieName))
		api.Use(middlewareChi.Timeout(30 * time.Second))

		api.Route("/messages", func(ms chi.Router) {
			ms.Get("/users", h.GetSidebarUsers)
			ms.Get("/starred", h.GetStarredMessages)
			ms.Get("/{id}", h.GetMessages)
			ms.Post("/send/{id}", h.SendMessage)
			ms.Put("/mark-read/{senderId}", h.MarkMessagesRead)
			ms.Put("/star/{id}", h.ToggleStar)
			ms.Delete("/{id}", h.DeleteMessage)
		})

		api.Get("/conversations", h.ListConversations)

		api.Route("/groups", func(gr chi.Router) {
			gr.Post("/", h.CreateGroup)
			gr.Get("/", h.ListGroups)

			gr.Route("/{id}", func(gg chi.Router) {
				gg.Get("/", h.GetGroup)
				gg.Put("/", h.UpdateGroup)
				gg.Delete("/", h.DeleteGroup)
				gg.Post("/members", h.AddGroupMember)
				gg.Delete("/members/{userId}", h.RemoveGroupMember)
				gg.Post("/leave", h.LeaveGroup)
				gg.Get("/messages", h.GetGroupMessages)
				gg.Post("/send", h.SendGroupMessage)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
