package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neiist-dev/shop-backend/pkg/db/models"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByID loads the product with its variants in insertion order.
func (r *repository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
	if !filters.IncludeHidden {
		query = query.Where("visible = ?", true)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.FeaturedOnly {
		query = query.Where("featured = ?", true)
	}
	var products []models.Product
	if err := query.Order("featured DESC, name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("id = ?", variantID).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// DecrementVariantStock atomically reduces tracked stock. The guard in the
// WHERE clause rejects oversells under concurrent orders; a variant that
// reaches zero is deactivated in the same statement. On-demand variants
// (NULL stock_quantity) never match and must not be passed here.
func (r *repository) DecrementVariantStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	res := r.db.WithContext(ctx).Exec(`
UPDATE product_variants
SET stock_quantity = stock_quantity - ?,
    active = CASE WHEN stock_quantity - ? <= 0 THEN ? ELSE active END,
    updated_at = ?
WHERE id = ? AND stock_quantity IS NOT NULL AND stock_quantity >= ?`,
		qty, qty, false, time.Now().UTC(), variantID, qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for variant")
	}
	return nil
}
