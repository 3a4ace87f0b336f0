package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"jduel/answer"
	"jduel/config"
	"jduel/crypto"
	"jduel/game"
	"jduel/logger"
	"jduel/migrations"
	"jduel/storage"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		// Non-browser clients and top-level navigations carry no Origin.
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg := config.Load()

	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	gin.SetMode(cfg.GinMode)

	if cfg.TokenKey == "" {
		log.Fatal().Msg("TOKEN_KEY is required")
	}

	var source game.QuestionSource
	if cfg.PostgresURL != "" {
		if err := migrations.Migrate(cfg.PostgresURL); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		pgRepo, err := storage.NewPostgresRepo(context.Background(), cfg.PostgresURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pgRepo.Close()
		source = pgRepo
	} else {
		log.Warn().Msg("POSTGRES_URL not set, serving the built-in question set")
		source = storage.NewStaticSource()
	}

	tokenAge := time.Hour * 24
	tokenManager := crypto.NewSessionTokenManager(cfg.TokenKey, tokenAge)

	lobby := game.NewLobby(game.NewRoomCodeGenerator(), game.RoomDeps{
		Source:           source,
		Verifier:         answer.NewNormalizedMatch(),
		Tokens:           tokenManager,
		QuestionsPerGame: cfg.QuestionsPerGame,
		Timings:          game.DefaultTimings(),
	})

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	r := CreateServer(cfg.AllowedOrigins)

	gameHandler := game.NewGameHandler(lobby, cfg.AllowedOrigins, cfg.PublicBaseURL)
	{
		api := r.Group("/api")
		api.POST("/rooms", gameHandler.CreateRoomHandler)
		api.GET("/rooms/:roomid", gameHandler.RoomInfoHandler)
		api.POST("/rooms/:roomid/join", gameHandler.JoinRoomHandler)
		api.GET("/rooms/:roomid/qr", gameHandler.RoomQRHandler)
	}
	r.GET("/ws", gameHandler.AttachHandler)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	lobby.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
