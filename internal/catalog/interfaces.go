package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neiist-dev/shop-backend/pkg/db/models"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

// Repository defines persistence operations for the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, filters ListFilters) ([]models.Product, error)
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error)
	DecrementVariantStock(ctx context.Context, variantID uuid.UUID, qty int) error
}

// ListFilters narrow the catalog listing.
type ListFilters struct {
	Category      string
	FeaturedOnly  bool
	IncludeHidden bool
}

// Service exposes the read side of the catalog plus variant resolution.
type Service interface {
	ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error)
	GetProduct(ctx context.Context, productID string) (*ProductDTO, error)
	OptionValues(ctx context.Context, productID string, selections types.OptionMap) (*OptionValuesDTO, error)
	ResolveVariant(ctx context.Context, productID string, selections types.OptionMap) (*ResolvedVariantDTO, error)
}
