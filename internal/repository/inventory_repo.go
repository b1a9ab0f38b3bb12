package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/model"
)

// ErrStockVersionConflict signals that the aggregate row changed under us;
// the enclosing transaction must abort and the operation may be retried.
var ErrStockVersionConflict = errors.New("conflicto de versión en el inventario, reintente")

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// GetForKey returns the aggregate for (platform, business) or (nil, nil).
func (r *InventoryRepository) GetForKey(ctx context.Context, tx *gorm.DB, platformID, businessID int64) (*model.InventoryStock, error) {
	if tx == nil {
		tx = r.db
	}
	var stock model.InventoryStock
	err := tx.WithContext(ctx).
		Where("platform_id = ? AND business_id = ?", platformID, businessID).
		First(&stock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stock, nil
}

func (r *InventoryRepository) Create(ctx context.Context, tx *gorm.DB, stock *model.InventoryStock) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(stock).Error
}

// ApplyUpdate writes the recomputed aggregate conditionally on the version it
// was read at. Zero rows affected means a concurrent writer won.
func (r *InventoryRepository) ApplyUpdate(ctx context.Context, tx *gorm.DB, stock *model.InventoryStock, readVersion int) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.InventoryStock{}).
		Where("id = ? AND version = ?", stock.ID, readVersion).
		Updates(map[string]interface{}{
			"stock":       stock.Stock,
			"avg_cost":    stock.AvgCost,
			"total_value": stock.TotalValue,
			"version":     readVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStockVersionConflict
	}
	stock.Version = readVersion + 1
	return nil
}

func (r *InventoryRepository) AppendMovement(ctx context.Context, tx *gorm.DB, movement *model.InventoryMovement) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(movement).Error
}

func (r *InventoryRepository) ListByBusiness(ctx context.Context, businessID int64) ([]*model.InventoryStock, error) {
	var stocks []*model.InventoryStock
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("platform_id ASC").
		Find(&stocks).Error
	return stocks, err
}

func (r *InventoryRepository) ListAll(ctx context.Context) ([]*model.InventoryStock, error) {
	var stocks []*model.InventoryStock
	err := r.db.WithContext(ctx).Order("id ASC").Find(&stocks).Error
	return stocks, err
}

// ListMovements returns a business's movement history in chronological order,
// optionally narrowed to one platform.
func (r *InventoryRepository) ListMovements(ctx context.Context, businessID int64, platformID *int64) ([]*model.InventoryMovement, error) {
	query := r.db.WithContext(ctx).Where("business_id = ?", businessID)
	if platformID != nil {
		query = query.Where("platform_id = ?", *platformID)
	}
	var movements []*model.InventoryMovement
	err := query.Order("created_at ASC, id ASC").Find(&movements).Error
	return movements, err
}

// LatestMovement returns the newest movement for a stock key, or (nil, nil).
func (r *InventoryRepository) LatestMovement(ctx context.Context, platformID, businessID int64) (*model.InventoryMovement, error) {
	var movement model.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("platform_id = ? AND business_id = ?", platformID, businessID).
		Order("created_at DESC, id DESC").
		First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &movement, nil
}
