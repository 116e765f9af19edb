package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/codingconcepts/env"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/golden-vcr/overlay/internal/auth"
	"github.com/golden-vcr/overlay/internal/badges"
	"github.com/golden-vcr/overlay/internal/chat"
	"github.com/golden-vcr/overlay/internal/health"
	"github.com/golden-vcr/overlay/internal/logging"
	"github.com/golden-vcr/overlay/internal/metrics"
	"github.com/golden-vcr/overlay/internal/moderation"
	"github.com/golden-vcr/overlay/internal/overlay"
	"github.com/golden-vcr/overlay/internal/store"
	"github.com/golden-vcr/overlay/internal/style"
	"github.com/golden-vcr/overlay/internal/twitch"
	"github.com/golden-vcr/overlay/internal/visibility"
)

type Config struct {
	BindAddr   string `env:"BIND_ADDR"`
	ListenPort uint16 `env:"LISTEN_PORT" default:"5003"`

	ChatConnectTimeoutSeconds  int     `env:"CHAT_CONNECT_TIMEOUT_SECONDS" default:"10"`
	BadgeCacheTtlSeconds       int     `env:"BADGE_CACHE_TTL_SECONDS" default:"3600"`
	ModerationActionsPerSecond float64 `env:"MODERATION_ACTIONS_PER_SECOND" default:"2"`
	ModerationBurst            int     `env:"MODERATION_BURST" default:"5"`
	CorsAllowedOrigins         string  `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	twitchConfig := twitch.Config{}
	logConfig := logging.Config{}
	storeConfig := store.Config{}
	pgConfig := store.PostgresConfig{}
	spacesConfig := store.SpacesConfig{}
	for _, c := range []any{&config, &twitchConfig, &logConfig, &storeConfig, &pgConfig, &spacesConfig} {
		if err := env.Set(c); err != nil {
			log.Fatalf("error loading config: %v", err)
		}
	}

	logger := logging.New(logConfig)
	m := metrics.New()

	ctx, close := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM)
	defer close()

	// Authenticate with the Twitch API as our app, and identify the broadcaster: only
	// the owner of the configured channel may change settings or moderate
	twitchClient, err := twitch.NewClientWithAppToken(twitchConfig.ClientId, twitchConfig.ClientSecret)
	if err != nil {
		log.Fatalf("error initializing Twitch API client: %v", err)
	}
	channelUserId, err := twitch.GetUserIdByLogin(twitchClient, twitchConfig.ChannelName)
	if err != nil {
		log.Fatalf("error resolving Twitch user ID for channel %s: %v", twitchConfig.ChannelName, err)
	}

	// Open the store that holds saved style snapshots
	snapshots, err := store.Open(ctx, storeConfig, pgConfig, spacesConfig)
	if err != nil {
		log.Fatalf("error initializing snapshot store: %v", err)
	}
	defer snapshots.Close()

	// Chat messages flow from the IRC connection into the ingest, which owns the
	// message buffer; the visibility engine decides which of those messages are shown
	// and hands them to the overlay server for rendering
	ingest := chat.NewIngest(style.DefaultMaxMessages, logger.With("component", "ingest"), m)
	connectTimeout := time.Duration(config.ChatConnectTimeoutSeconds) * time.Second
	supervisor := chat.NewSupervisor(ingest, chat.NewAnonymousTransport, connectTimeout, logger.With("component", "chat"))
	defer supervisor.Close()

	var srv *overlay.Server
	engine := visibility.NewEngine(
		ingest,
		visibility.Policy{MaxMessages: style.DefaultMaxMessages},
		func(view visibility.View) { srv.Publish(view) },
		logger.With("component", "visibility"),
		m,
	)
	badgeTtl := time.Duration(config.BadgeCacheTtlSeconds) * time.Second
	badgeSource := badges.NewSource(twitchClient, badgeTtl, logger.With("component", "badges"), m)

	userClients := twitch.NewUserClients(twitchConfig.ClientId)
	authServer := auth.NewServer(channelUserId, userClients, logger.With("component", "auth"))
	srv = overlay.NewServer(
		ctx,
		supervisor,
		ingest,
		engine,
		badgeSource,
		snapshots,
		overlay.NewRenderer(time.Local),
		authServer.RequireBroadcaster,
		logger.With("component", "overlay"),
		m,
	)
	moderator := moderation.NewModerator(
		userClients,
		chat.NewSender(chat.NewAuthenticatedTransport, connectTimeout, logger.With("component", "sender")),
		config.ModerationActionsPerSecond,
		config.ModerationBurst,
		ingest,
		logger.With("component", "moderation"),
		m,
	)
	healthServer := health.NewServer(supervisor.GetStatus, snapshots.Ping, srv.BadgeStatus)

	r := mux.NewRouter()
	r.Path("/status").Methods("GET").Handler(healthServer)
	r.Path("/metrics").Methods("GET").Handler(m.Handler())
	authServer.RegisterRoutes(r)
	srv.RegisterRoutes(r)
	{
		moderationRouter := r.PathPrefix("/moderation").Subrouter()
		moderationRouter.Use(authServer.RequireBroadcaster)
		moderation.NewServer(moderator).RegisterRoutes(moderationRouter)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: strings.Split(config.CorsAllowedOrigins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	addr := fmt.Sprintf("%s:%d", config.BindAddr, config.ListenPort)
	server := &http.Server{Addr: addr, Handler: c.Handler(m.Middleware(r))}

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error { return ingest.Run(ctx) })
	wg.Go(func() error { return engine.Run(ctx) })
	wg.Go(func() error {
		if err := snapshots.Watch(ctx, logger.With("component", "store"), srv.OnSnapshotChanged); err != nil {
			logger.Error("stopped watching for external style changes", "error", err)
		}
		return nil
	})
	wg.Go(func() error {
		// A failed initial connection leaves the channel selected; the broadcaster can
		// retry from the dashboard
		if err := srv.SwitchChannel(ctx, twitchConfig.ChannelName); err != nil {
			logger.Error("initial chat connection failed", "channel", twitchConfig.ChannelName, "error", err)
		}
		return nil
	})
	wg.Go(func() error {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	wg.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := wg.Wait(); err != nil {
		log.Fatalf("error running server: %v", err)
	}
	logger.Info("server closed")
}
