// Command api serves the VYNE HTTP API.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/vyne/backend/internal/config"
	"github.com/zhouzirui/vyne/backend/internal/handler"
	"github.com/zhouzirui/vyne/backend/internal/logging"
	"github.com/zhouzirui/vyne/backend/internal/model/fixtures"
	"github.com/zhouzirui/vyne/backend/internal/model/profile"
	"github.com/zhouzirui/vyne/backend/internal/model/room"
	"github.com/zhouzirui/vyne/backend/internal/service/admin"
	"github.com/zhouzirui/vyne/backend/internal/service/chat"
	"github.com/zhouzirui/vyne/backend/internal/service/events"
	"github.com/zhouzirui/vyne/backend/internal/service/matchflow"
	"github.com/zhouzirui/vyne/backend/internal/service/matching"
	"github.com/zhouzirui/vyne/backend/internal/service/moderation"
	"github.com/zhouzirui/vyne/backend/internal/service/session"
	"github.com/zhouzirui/vyne/backend/internal/service/sound"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		l := logging.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.Init(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Service: "vyne-api"})
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("no .env file, continuing with system environment variables only")
	}

	doc := fixtures.Default()
	if cfg.SeedFile != "" {
		doc, err = fixtures.Load(cfg.SeedFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.SeedFile).Msg("failed to load seed file")
		}
		logger.Info().Str("path", cfg.SeedFile).Msg("seed file loaded")
	}

	profiles := profile.NewMemoryStore(doc.Profiles)
	rooms, err := room.NewMemoryStore(doc.Rooms)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid room fixtures")
	}

	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			logger.Warn().Err(err).Str("provider", string(cfg.AI.Provider)).Msg("oracle unavailable, matching falls back and moderation approves everything")
			chatModel = nil
		} else {
			logger.Info().Str("provider", string(cfg.AI.Provider)).Msg("oracle initialized")
		}
	} else {
		logger.Info().Str("provider", string(cfg.AI.Provider)).Msg("oracle credentials not configured, skipping")
	}

	moderator, err := moderation.NewService(ctx, chatModel, moderation.Config{Enabled: cfg.Moderation.Enabled}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build moderation chain")
	}
	ranker, err := matching.NewService(ctx, chatModel, matching.Config{Limit: cfg.Match.Limit}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build ranking chain")
	}

	hub := events.NewHub()
	defer hub.Close()

	sounds := sound.NewService(hub, cfg.Timers.RingtoneInterval)
	chatSvc := chat.NewService(rooms, moderator, sounds, hub, chat.Config{ModerationTimeout: cfg.Moderation.Timeout}, logger)
	adminSvc := admin.NewService(profiles, rooms, chatSvc)
	flow := matchflow.New(profiles, ranker, hub, matchflow.Config{Timeout: cfg.Match.Timeout}, logger)

	sess, err := session.New(session.Config{
		CurrentUserID: doc.Profiles[0].ID,
		CallTick:      cfg.Timers.CallTick,
	}, session.Deps{
		Profiles:  profiles,
		Rooms:     rooms,
		Ringer:    sounds,
		Publisher: hub,
		Leaver:    chatSvc,
		Recorder:  adminSvc,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open session")
	}

	auditEvents, cancelAudit := hub.Subscribe(128)
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		adminSvc.Run(ctx, auditEvents)
	}()
	adminSvc.Record(admin.LevelSys, "VYNE backend started")

	router := handler.NewRouter(handler.Deps{
		Profiles: profiles,
		Rooms:    rooms,
		Chat:     chatSvc,
		Match:    flow,
		Session:  sess,
		Admin:    adminSvc,
		Hub:      hub,
	}, logger)

	startServer(ctx, cfg.Server, router, logger)

	sess.Close()
	flow.Close()
	flow.Wait()
	chatSvc.Wait()
	cancelAudit()
	<-auditDone
	logger.Info().Msg("shutdown complete")
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger zerolog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		// Streams end when the process is asked to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	logger.Info().Str("addr", addr).Msg("VYNE backend listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Error().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
