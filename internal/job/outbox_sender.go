package job

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/infrastructure/mq"
	"github.com/Josephquito/back-streaming/internal/model"
	"github.com/Josephquito/back-streaming/internal/repository"
)

// OutboxSender drains pending outbox rows into Kafka. Movements land in the
// outbox inside the ledger transaction, so the ledger never blocks on the
// broker and nothing publishes unless the transaction committed.
type OutboxSender struct {
	db         *gorm.DB
	outboxRepo *repository.OutboxRepository
	cfg        *config.Config
	log        *logrus.Logger
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *OutboxSender {
	return &OutboxSender{
		db:         db,
		outboxRepo: repository.NewOutboxRepository(db),
		cfg:        cfg,
		log:        log,
		stopCh:     make(chan struct{}),
		interval:   100 * time.Millisecond,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.log.Info("tarea de envío de mensajes iniciada")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("tarea de envío de mensajes detenida por contexto")
			return
		case <-s.stopCh:
			s.log.Info("tarea de envío de mensajes detenida")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		s.log.WithError(err).Error("no se pudieron consultar los mensajes pendientes")
		return
	}

	for _, msg := range messages {
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	err := mq.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)

	if err == nil {
		if updateErr := s.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			s.log.WithError(updateErr).WithField("outbox_id", msg.ID).Error("no se pudo actualizar el estado del mensaje")
			return
		}
		s.log.WithFields(logrus.Fields{"outbox_id": msg.ID, "topic": msg.Topic, "key": msg.MessageKey}).Debug("mensaje publicado")
		return
	}

	s.log.WithError(err).WithField("outbox_id", msg.ID).Warn("fallo publicando el mensaje")

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		s.log.WithError(err).WithField("outbox_id", msg.ID).Error("no se pudo incrementar el contador de reintentos")
	}

	if msg.RetryCount+1 >= s.cfg.Business.MaxRetryCount {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			s.log.WithError(err).WithField("outbox_id", msg.ID).Error("no se pudo marcar el mensaje como fallido")
			return
		}
		s.log.WithField("outbox_id", msg.ID).Error("mensaje superó el máximo de reintentos")
	}
}
