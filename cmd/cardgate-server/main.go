package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardgate/internal/cardgate/reasoning"
	"cardgate/internal/cardgate/service"
	sqlitestore "cardgate/internal/cardgate/store/sqlite"
	"cardgate/internal/config"
	"cardgate/internal/db"
	"cardgate/internal/httpapi"
	"cardgate/internal/metrics"
	"cardgate/internal/scanfeed"
)

func main() {
	logger := log.New(os.Stdout, "cardgate-server ", log.LstdFlags|log.LUTC)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn); err != nil {
			logger.Fatalf("seed dev data: %v", err)
		}
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	cardStore := sqlitestore.NewCardStore(conn, writer)
	profileStore := sqlitestore.NewProfileStore(conn, writer)
	identityStore := sqlitestore.NewIdentityStore(conn, writer)
	accessLogStore := sqlitestore.NewAccessLogStore(conn, writer)

	// Services
	m := metrics.New(nil)
	audit := service.NewAuditLog(accessLogStore, logger, m)
	permissions := service.NewPermissions(cardStore)

	decisionCfg := service.DecisionConfig{EngineTimeout: cfg.ReasoningTimeout()}
	if cfg.ReasoningEnabled {
		decisionCfg.Engine = reasoning.NewOpenAIEngine(reasoning.OpenAIConfig{
			ResponsesURL: cfg.ReasoningURL,
			APIKey:       cfg.ReasoningAPIKey,
			Model:        cfg.ReasoningModel,
		})
		logger.Printf("reasoning augmentation enabled (model=%s)", cfg.ReasoningModel)
	}

	decisionSvc := service.NewDecisionService(cardStore, permissions, audit, decisionCfg, logger, m)
	registrationSvc := service.NewRegistrationService(identityStore, profileStore, cardStore, logger, m)

	// Reader feed
	feed := scanfeed.NewListener(scanfeed.Config{
		URL:       cfg.ReaderURL,
		Reconnect: cfg.ReconnectInterval(),
		QueueSize: cfg.ScanQueueSize,
	}, decisionSvc, logger, m)
	feed.Start(ctx)
	defer feed.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:       logger,
		Addr:         cfg.HTTPAddr,
		Decision:     decisionSvc,
		Registration: registrationSvc,
		Audit:        audit,
		Feed:         feed,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
