package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"shiny/service/channel"
	"shiny/service/config"
	"shiny/service/credentials"
	"shiny/service/delivery"
	"shiny/service/device"
	"shiny/service/integration/telegram"
	"shiny/service/integration/webpush"
	"shiny/service/registry"
	"shiny/service/storage"
	"shiny/service/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	cfg     *config.Config
	version string
	db      *sqlx.DB

	channels       *channel.Manager
	channelStore   channel.Store
	devices        *device.Store
	applied        *registry.Memory
	deviceRegistry *registry.Devices
	pusher         *webpush.Pusher
	publisher      *delivery.Publisher
	telegramClient *telegram.Client

	logger     *slog.Logger
	router     *chi.Mux
	httpServer *http.Server
	startTime  time.Time
}

func New(cfg *config.Config, version string, logger *slog.Logger) (*Server, error) {
	db, err := storage.OpenSQLite(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		version:   version,
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}

	if err := s.wire(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) wire() error {
	ctx := context.Background()

	switch s.cfg.StoreBackend {
	case config.StoreRedis:
		store, err := channel.NewRedisStore(ctx, s.cfg.RedisURL, s.cfg.RedisPrefix)
		if err != nil {
			return fmt.Errorf("failed to create redis channel store: %w", err)
		}
		s.channelStore = store
	default:
		store, err := channel.NewSQLStore(s.db)
		if err != nil {
			return fmt.Errorf("failed to create channel store: %w", err)
		}
		s.channelStore = store
	}

	devices, err := device.NewStore(s.db)
	if err != nil {
		return fmt.Errorf("failed to create device store: %w", err)
	}
	s.devices = devices

	creds, err := credentials.NewStore(s.db, s.cfg.APIKey, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create credentials store: %w", err)
	}
	vapid, err := creds.VAPID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load VAPID keys: %w", err)
	}

	s.pusher = webpush.NewPusher(webpush.Options{
		VAPIDPublicKey:  vapid.PublicKey,
		VAPIDPrivateKey: vapid.PrivateKey,
		Subscriber:      s.cfg.VAPIDSubscriber,
		TTL:             s.cfg.PushTTL,
	}, s.logger)

	s.applied = registry.NewMemory()
	s.deviceRegistry = registry.NewDevices(devices, s.pusher, s.logger)
	s.channels = channel.NewManager(s.channelStore, registry.Multi{s.applied, s.deviceRegistry}, s.logger)

	s.publisher = delivery.NewPublisher(s.channels, delivery.DefaultRetryPolicy, s.logger)
	s.publisher.RegisterSender("webpush", webpush.NewSender(devices, s.pusher, s.logger))

	if s.cfg.IsTelegramEnabled() {
		client, err := telegram.NewClient(s.cfg.TelegramBotToken)
		if err != nil {
			s.logger.Warn("Telegram disabled", "error", err)
		} else {
			s.telegramClient = client
			s.publisher.RegisterSender("telegram", telegram.NewSender(client, s.cfg.TelegramChatID, s.cfg.OpenAppURL, s.logger))
		}
	}

	return nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(s.logger))
	r.Use(securityHeadersMiddleware())
	r.Use(middleware.StripSlashes)
	r.Use(rateLimitMiddleware(s.cfg.RateLimit))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware(s.cfg.APIKey))

		r.Get("/channels", s.handleListChannels)
		r.Delete("/channels", s.handleClearChannels)
		r.Get("/channels/{id}", s.handleGetChannel)
		r.Put("/channels/{id}", s.handlePutChannel)
		r.Delete("/channels/{id}", s.handleDeleteChannel)

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories/rebuild", s.handleRebuildCategories)

		r.Get("/devices", s.handleListDevices)
		r.Post("/devices", s.handleEnrollDevice)
		r.Get("/devices/enroll.png", s.handleEnrollQR)
		r.Delete("/devices/{id}", s.handleDeleteDevice)

		r.Post("/notifications", s.handlePublish)
	})

	s.router = r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Channels() *channel.Manager {
	return s.channels
}

func (s *Server) Start(ctx context.Context) error {
	s.channels.Start(ctx)

	if s.telegramClient != nil {
		if bot, err := s.telegramClient.GetMe(ctx); err != nil {
			s.logger.Warn("Telegram bot unreachable", "error", err)
		} else {
			s.logger.Info("Telegram sender ready", "bot", "@"+bot.Username)
		}
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	msg := fmt.Sprintf("Shiny running on:\n  Local: http://localhost:%d", s.cfg.Port)
	if lanIP := util.GetLANIP(); lanIP != "" {
		msg += fmt.Sprintf("\n  Network: http://%s:%d", lanIP, s.cfg.Port)
	}
	s.logger.Info(msg)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down server")

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown http server: %w", err)
		}
	}

	return s.close()
}

func (s *Server) close() error {
	var errs []error
	if closer, ok := s.channelStore.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel store: %w", err))
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}
