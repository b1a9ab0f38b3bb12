package job

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/model"
	"github.com/Josephquito/back-streaming/internal/repository"
)

// LedgerAudit periodically sweeps every inventory aggregate and checks its
// internal consistency: the stored total value must equal stock times
// average cost, and the latest movement's running balance must match the
// aggregate. Violations are logged, never repaired automatically.
type LedgerAudit struct {
	db        *gorm.DB
	stockRepo *repository.InventoryRepository
	cfg       *config.Config
	log       *logrus.Logger
	stopCh    chan struct{}
	interval  time.Duration
}

func NewLedgerAudit(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *LedgerAudit {
	interval := time.Duration(cfg.Business.AuditIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &LedgerAudit{
		db:        db,
		stockRepo: repository.NewInventoryRepository(db),
		cfg:       cfg,
		log:       log,
		stopCh:    make(chan struct{}),
		interval:  interval,
	}
}

func (a *LedgerAudit) Start(ctx context.Context) {
	a.log.Info("auditoría del inventario iniciada")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("auditoría del inventario detenida por contexto")
			return
		case <-a.stopCh:
			a.log.Info("auditoría del inventario detenida")
			return
		case <-ticker.C:
			a.sweep(ctx)
		}
	}
}

func (a *LedgerAudit) Stop() {
	close(a.stopCh)
}

func (a *LedgerAudit) sweep(ctx context.Context) {
	stocks, err := a.stockRepo.ListAll(ctx)
	if err != nil {
		a.log.WithError(err).Error("no se pudo listar el inventario para la auditoría")
		return
	}

	for _, stock := range stocks {
		a.checkAggregate(ctx, stock)
	}
}

func (a *LedgerAudit) checkAggregate(ctx context.Context, stock *model.InventoryStock) {
	fields := logrus.Fields{
		"platform_id": stock.PlatformID,
		"business_id": stock.BusinessID,
	}

	if stock.Stock < 0 {
		a.log.WithFields(fields).WithField("stock", stock.Stock).Error("auditoría: stock negativo")
	}

	expected := stock.ExpectedValue()
	if !stock.TotalValue.Equal(expected) {
		a.log.WithFields(fields).WithFields(logrus.Fields{
			"total_value": stock.TotalValue.String(),
			"expected":    expected.String(),
		}).Error("auditoría: el valor total no corresponde a stock por costo promedio")
	}

	latest, err := a.stockRepo.LatestMovement(ctx, stock.PlatformID, stock.BusinessID)
	if err != nil {
		a.log.WithFields(fields).WithError(err).Error("auditoría: no se pudo leer el último movimiento")
		return
	}
	if latest == nil {
		return
	}

	if latest.BalanceQty != stock.Stock || !latest.BalanceTotal.Equal(stock.TotalValue) {
		a.log.WithFields(fields).WithFields(logrus.Fields{
			"movement_no":     latest.MovementNo,
			"balance_qty":     latest.BalanceQty,
			"balance_total":   latest.BalanceTotal.String(),
			"aggregate_qty":   stock.Stock,
			"aggregate_total": stock.TotalValue.String(),
		}).Error("auditoría: el saldo del último movimiento no coincide con el agregado")
	}
}
