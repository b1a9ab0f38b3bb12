package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/handler"
	"github.com/Josephquito/back-streaming/internal/infrastructure/cache"
	"github.com/Josephquito/back-streaming/internal/infrastructure/database"
	"github.com/Josephquito/back-streaming/internal/infrastructure/mq"
	"github.com/Josephquito/back-streaming/internal/job"
	"github.com/Josephquito/back-streaming/pkg/idgen"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg := config.LoadConfig("config/config.yaml")

	idgen.Init(1)

	db := database.InitMySQL(&cfg.MySQL, log)
	redisClient := cache.InitRedis(&cfg.Redis, log)

	mq.InitKafka(&cfg.Kafka, log)
	defer mq.CloseKafka()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxSender := job.NewOutboxSender(db, cfg, log)
	go outboxSender.Start(ctx)

	ledgerAudit := job.NewLedgerAudit(db, cfg, log)
	go ledgerAudit.Start(ctx)

	router := handler.SetupRouter(db, redisClient, cfg, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("servidor iniciado")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("el servidor no pudo iniciar: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("apagando el servidor")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("el servidor no se apagó limpiamente")
	}

	log.Info("servidor apagado")
}
