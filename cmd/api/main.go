package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mait-chat/backend/internal/config"
	"github.com/mait-chat/backend/internal/handler"
	"github.com/mait-chat/backend/internal/handler/reply"
	"github.com/mait-chat/backend/internal/logging"
	"github.com/mait-chat/backend/internal/model/persona"
	"github.com/mait-chat/backend/internal/service/ai"
	"github.com/mait-chat/backend/internal/service/chat"
	"github.com/mait-chat/backend/internal/service/completion"
	"github.com/mait-chat/backend/internal/service/history"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialise logger: %v", err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Info("no .env file loaded, using process environment", zap.Error(envErr))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	personaStore, err := loadPersonas(cfg.Assistant)
	if err != nil {
		return err
	}
	assistant := personaStore.Default()
	logger.Info("assistant profile loaded", zap.String("id", assistant.ID), zap.String("name", assistant.Name))

	// The reply backend only exists when model credentials are configured.
	var aiSvc *ai.Service
	if cfg.AI.Enabled() {
		aiSvc, err = ai.NewService(ctx, cfg.AI, assistant, history.NewStore(cfg.AI.HistoryLimit), logger.Named("ai"))
		if err != nil {
			logger.Warn("AI service unavailable, /api/chat disabled", zap.Error(err))
			aiSvc = nil
		} else {
			logger.Info("AI service initialised")
		}
	} else {
		logger.Info("ark credentials not configured, /api/chat disabled")
	}

	completer, opts, err := buildCompleter(cfg.Completion, aiSvc, logger)
	if err != nil {
		return err
	}

	chatSvc, err := chat.NewService(completer, personaStore, logger.Named("chat"), opts...)
	if err != nil {
		return fmt.Errorf("creating chat service: %w", err)
	}

	var replier reply.Replier
	if aiSvc != nil {
		replier = aiSvc
	}

	router := handler.NewRouter(handler.Deps{
		Personas:       personaStore,
		Chat:           chatSvc,
		Replier:        replier,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return chatSvc.Run(gctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout)
	})
	g.Go(func() error {
		logger.Info("mait chat backend listening", zap.String("addr", srv.Addr))
		return runServer(gctx, srv)
	})
	return g.Wait()
}

func loadPersonas(cfg config.AssistantConfig) (*persona.MemoryStore, error) {
	items := persona.Seed()
	if cfg.ProfilePath != "" {
		loaded, err := persona.LoadFile(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		items = append(loaded, items...)
	}
	return persona.NewMemoryStore(items).WithDefault(cfg.ID), nil
}

func buildCompleter(cfg config.CompletionConfig, aiSvc *ai.Service, logger *zap.Logger) (completion.Completer, []chat.Option, error) {
	if cfg.Mode == config.ModeLocal {
		if aiSvc == nil {
			return nil, nil, errors.New("CHAT_COMPLETION_MODE=local requires Ark credentials")
		}
		logger.Info("sessions complete in-process")
		return aiSvc.Completer(), []chat.Option{chat.OnSessionClosed(aiSvc.ForgetVisitor)}, nil
	}

	client, err := completion.NewClient(cfg.Endpoint,
		completion.WithTimeout(cfg.Timeout),
		completion.WithBearerToken(cfg.Token),
		completion.WithLogger(logger.Named("completion")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating completion client: %w", err)
	}
	logger.Info("sessions complete via remote endpoint", zap.String("endpoint", client.Endpoint()))
	return client, nil, nil
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
