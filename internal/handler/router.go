// Package handler assembles the HTTP router.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/vyne/backend/internal/handler/chat"
	"github.com/zhouzirui/vyne/backend/internal/handler/match"
	profileHandler "github.com/zhouzirui/vyne/backend/internal/handler/profile"
	sessionHandler "github.com/zhouzirui/vyne/backend/internal/handler/session"
	"github.com/zhouzirui/vyne/backend/internal/handler/stream"
	"github.com/zhouzirui/vyne/backend/internal/logging"
	chatModel "github.com/zhouzirui/vyne/backend/internal/model/chat"
	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/model/room"
	adminService "github.com/zhouzirui/vyne/backend/internal/service/admin"
	chatService "github.com/zhouzirui/vyne/backend/internal/service/chat"
	"github.com/zhouzirui/vyne/backend/internal/service/events"
	"github.com/zhouzirui/vyne/backend/internal/service/matchflow"
	"github.com/zhouzirui/vyne/backend/internal/service/session"
	"github.com/zhouzirui/vyne/backend/pkg/utils"
)

// Deps bundles the services the router exposes.
type Deps struct {
	Profiles profile.Store
	Rooms    room.Store
	Chat     *chatService.Service
	Match    *matchflow.Flow
	Session  *session.Session
	Admin    *adminService.Service
	Hub      *events.Hub
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.HTTPMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:       []string{"X-Request-ID"},
		MaxAge:               300,
		OptionsSuccessStatus: http.StatusNoContent,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	sender := currentUserSender{chat: deps.Chat, session: deps.Session}

	r.Route("/api", func(api chi.Router) {
		profileHandler.New(deps.Profiles).RegisterRoutes(api)
		chat.New(deps.Chat, deps.Rooms, deps.Session).RegisterRoutes(api)
		match.New(deps.Match, deps.Session).RegisterRoutes(api)
		sessionHandler.New(deps.Session, deps.Admin).RegisterRoutes(api)
		stream.New(deps.Hub, sender).RegisterRoutes(api)
	})

	return r
}

// currentUserSender lets websocket clients post as the signed-in user.
type currentUserSender struct {
	chat    *chatService.Service
	session *session.Session
}

func (s currentUserSender) SendAsCurrentUser(ctx context.Context, roomID, text string) (chatModel.Message, bool, error) {
	return s.chat.Send(ctx, roomID, s.session.CurrentUser().ID, text)
}
