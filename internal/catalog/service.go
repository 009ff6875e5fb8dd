package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/neiist-dev/shop-backend/pkg/db/models"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

type service struct {
	repo  Repository
	cache *ProductCache
}

// NewService wires the catalog read side. The cache may be nil.
func NewService(repo Repository, cache *ProductCache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, cache: cache}, nil
}

func (s *service) ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing products")
	}
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, *NewProductDTO(&products[i]))
	}
	return dtos, nil
}

func (s *service) GetProduct(ctx context.Context, productID string) (*ProductDTO, error) {
	product, err := s.loadVisibleProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) OptionValues(ctx context.Context, productID string, selections types.OptionMap) (*OptionValuesDTO, error) {
	product, err := s.loadVisibleProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	key, values, err := NextOption(product, selections)
	if err != nil {
		return nil, err
	}
	return &OptionValuesDTO{
		ProductID: product.ID,
		Key:       key,
		Values:    values,
		Complete:  key == "",
	}, nil
}

func (s *service) ResolveVariant(ctx context.Context, productID string, selections types.OptionMap) (*ResolvedVariantDTO, error) {
	product, err := s.loadVisibleProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	variant, err := ResolveVariant(product, selections)
	if err != nil {
		return nil, err
	}
	dto := &ResolvedVariantDTO{
		ProductID:     product.ID,
		Options:       variant.Options.Clone(),
		UnitPrice:     product.Price.Add(variant.PriceModifier),
		StockQuantity: variant.StockQuantity,
		Available:     variant.Available(),
	}
	if len(product.Variants) > 0 {
		id := variant.ID
		dto.VariantID = &id
	}
	return dto, nil
}

// loadVisibleProduct serves reads through the cache. Hidden products are
// indistinguishable from missing ones.
func (s *service) loadVisibleProduct(ctx context.Context, productID string) (*models.Product, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if cached, ok := s.cache.Get(ctx, productID); ok {
		if !cached.Visible {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return cached, nil
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	s.cache.Set(ctx, product)
	if !product.Visible {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}
