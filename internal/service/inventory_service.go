package service

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/config"
	"github.com/Josephquito/back-streaming/internal/model"
	"github.com/Josephquito/back-streaming/internal/repository"
	"github.com/Josephquito/back-streaming/pkg/apperr"
	"github.com/Josephquito/back-streaming/pkg/idgen"
)

// InventoryService owns the perpetual inventory ledger: one aggregate row per
// (platform, business) plus an append-only movement history. Entries
// recompute the moving-average unit cost; exits never change it.
type InventoryService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	log         *logrus.Logger
	stockRepo   *repository.InventoryRepository
	outboxRepo  *repository.OutboxRepository
}

func NewInventoryService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger) *InventoryService {
	return &InventoryService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		log:         log,
		stockRepo:   repository.NewInventoryRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

type EntryInput struct {
	PlatformID  int64
	BusinessID  int64
	Qty         int
	TotalCost   decimal.Decimal
	Description string
}

type ExitInput struct {
	PlatformID  int64
	BusinessID  int64
	Qty         int
	Description string
}

// Entry applies an inventory entry inside tx. A first entry creates the
// aggregate; later ones fold the new cost into the weighted average:
// newAvg = (stock×avg + totalCost) / (stock + qty).
func (s *InventoryService) Entry(ctx context.Context, tx *gorm.DB, in EntryInput) (*model.InventoryStock, error) {
	if in.Qty <= 0 {
		return nil, apperr.Validationf("datos inválidos: cantidad de perfiles incorrecta (%d)", in.Qty)
	}
	if in.TotalCost.IsNegative() {
		return nil, apperr.Validationf("datos inválidos: costo total negativo (%s)", in.TotalCost)
	}

	qty := decimal.NewFromInt(int64(in.Qty))
	unitCost := in.TotalCost.DivRound(qty, 4)

	stock, err := s.stockRepo.GetForKey(ctx, tx, in.PlatformID, in.BusinessID)
	if err != nil {
		return nil, err
	}

	if stock == nil {
		stock = &model.InventoryStock{
			PlatformID: in.PlatformID,
			BusinessID: in.BusinessID,
			Stock:      in.Qty,
			AvgCost:    unitCost,
			TotalValue: in.TotalCost.Round(2),
		}
		if err := s.stockRepo.Create(ctx, tx, stock); err != nil {
			return nil, err
		}
	} else {
		readVersion := stock.Version
		prevStock := decimal.NewFromInt(int64(stock.Stock))
		newStock := stock.Stock + in.Qty

		stock.AvgCost = prevStock.Mul(stock.AvgCost).
			Add(in.TotalCost).
			DivRound(decimal.NewFromInt(int64(newStock)), 4)
		stock.Stock = newStock
		stock.TotalValue = stock.ExpectedValue()

		if err := s.stockRepo.ApplyUpdate(ctx, tx, stock, readVersion); err != nil {
			return nil, err
		}
	}

	entryQty := in.Qty
	entryTotal := in.TotalCost.Round(2)
	movement := &model.InventoryMovement{
		MovementNo:      idgen.GenerateMovementNo(),
		PlatformID:      in.PlatformID,
		BusinessID:      in.BusinessID,
		Description:     in.Description,
		EntryQty:        &entryQty,
		EntryUnitCost:   &unitCost,
		EntryTotal:      &entryTotal,
		BalanceQty:      stock.Stock,
		BalanceUnitCost: stock.AvgCost,
		BalanceTotal:    stock.TotalValue,
	}
	if err := s.appendMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	return stock, nil
}

// Exit withdraws qty slots inside tx. The average cost is left untouched;
// only stock and value shrink.
func (s *InventoryService) Exit(ctx context.Context, tx *gorm.DB, in ExitInput) (*model.InventoryStock, error) {
	if in.Qty <= 0 {
		return nil, apperr.Validationf("datos inválidos: cantidad de perfiles incorrecta (%d)", in.Qty)
	}

	stock, err := s.stockRepo.GetForKey(ctx, tx, in.PlatformID, in.BusinessID)
	if err != nil {
		return nil, err
	}
	if stock == nil || stock.Stock < in.Qty {
		return nil, apperr.Conflictf("no hay suficiente inventario disponible")
	}

	readVersion := stock.Version
	stock.Stock -= in.Qty
	stock.TotalValue = stock.ExpectedValue()

	if err := s.stockRepo.ApplyUpdate(ctx, tx, stock, readVersion); err != nil {
		return nil, err
	}

	exitQty := in.Qty
	exitUnitCost := stock.AvgCost
	exitTotal := decimal.NewFromInt(int64(in.Qty)).Mul(stock.AvgCost).Round(2)
	movement := &model.InventoryMovement{
		MovementNo:      idgen.GenerateMovementNo(),
		PlatformID:      in.PlatformID,
		BusinessID:      in.BusinessID,
		Description:     in.Description,
		ExitQty:         &exitQty,
		ExitUnitCost:    &exitUnitCost,
		ExitTotal:       &exitTotal,
		BalanceQty:      stock.Stock,
		BalanceUnitCost: stock.AvgCost,
		BalanceTotal:    stock.TotalValue,
	}
	if err := s.appendMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	return stock, nil
}

func (s *InventoryService) appendMovement(ctx context.Context, tx *gorm.DB, movement *model.InventoryMovement) error {
	if err := s.stockRepo.AppendMovement(ctx, tx, movement); err != nil {
		return err
	}
	msg, err := model.NewMovementMessage(s.cfg.Kafka.Topic.InventoryMovement, movement)
	if err != nil {
		return err
	}
	return s.outboxRepo.Create(ctx, tx, msg)
}

// RecordEntry is the standalone entry operation (manual stock adjustments).
func (s *InventoryService) RecordEntry(ctx context.Context, in EntryInput, ident Identity) (*model.InventoryStock, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	in.BusinessID = ident.BusinessID

	var stock *model.InventoryStock
	err := withLedgerLock(ctx, s.db, s.redisClient, in.PlatformID, in.BusinessID, func(tx *gorm.DB) error {
		var err error
		stock, err = s.Entry(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// RecordExit is the standalone exit operation.
func (s *InventoryService) RecordExit(ctx context.Context, in ExitInput, ident Identity) (*model.InventoryStock, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	in.BusinessID = ident.BusinessID

	var stock *model.InventoryStock
	err := withLedgerLock(ctx, s.db, s.redisClient, in.PlatformID, in.BusinessID, func(tx *gorm.DB) error {
		var err error
		stock, err = s.Exit(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// GetStock returns the aggregate for one platform of the caller's business,
// or nil when no inventory exists yet.
func (s *InventoryService) GetStock(ctx context.Context, platformID int64, ident Identity) (*model.InventoryStock, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	return s.stockRepo.GetForKey(ctx, nil, platformID, ident.BusinessID)
}

func (s *InventoryService) ListStock(ctx context.Context, ident Identity) ([]*model.InventoryStock, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	return s.stockRepo.ListByBusiness(ctx, ident.BusinessID)
}

func (s *InventoryService) ListMovements(ctx context.Context, platformID *int64, ident Identity) ([]*model.InventoryMovement, error) {
	if err := ident.RequireBusiness(); err != nil {
		return nil, err
	}
	return s.stockRepo.ListMovements(ctx, ident.BusinessID, platformID)
}
