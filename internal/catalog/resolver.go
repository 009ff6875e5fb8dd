package catalog

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/neiist-dev/shop-backend/pkg/db/models"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

// OptionKeys returns the product's option dimensions in presentation order.
// Products declare the order explicitly via option_schema; when the column is
// empty the keys of the first variant are used, sorted for determinism.
func OptionKeys(p *models.Product) []string {
	if len(p.OptionSchema) > 0 {
		keys := make([]string, len(p.OptionSchema))
		copy(keys, p.OptionSchema)
		return keys
	}
	if len(p.Variants) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p.Variants[0].Options))
	for key := range p.Variants[0].Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// NextOption returns the first unselected dimension and the values still
// reachable for it given the selections made so far. Candidates narrow one
// dimension at a time, so every offered value is guaranteed to lead to at
// least one concrete variant. A ("", nil) result means the selection already
// covers every dimension.
func NextOption(p *models.Product, selections types.OptionMap) (string, []string, error) {
	if len(p.Variants) == 0 {
		if len(selections) > 0 {
			return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "product has no options")
		}
		return "", nil, nil
	}
	keys := OptionKeys(p)
	if err := checkKnownKeys(keys, selections); err != nil {
		return "", nil, err
	}

	candidates := make([]*models.ProductVariant, 0, len(p.Variants))
	for i := range p.Variants {
		candidates = append(candidates, &p.Variants[i])
	}
	for _, key := range keys {
		selected, ok := selections[key]
		if !ok {
			return key, distinctValues(candidates, key), nil
		}
		narrowed := candidates[:0:0]
		for _, variant := range candidates {
			if variant.Options[key] == selected {
				narrowed = append(narrowed, variant)
			}
		}
		if len(narrowed) == 0 {
			return "", nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("no variant offers %s %q with the current selection", key, selected))
		}
		candidates = narrowed
	}
	return "", nil, nil
}

// ResolveVariant maps a complete selection onto a concrete variant row.
// Products without variants resolve to an implicit default carrying the base
// price, but only when the selection is empty.
func ResolveVariant(p *models.Product, selections types.OptionMap) (*models.ProductVariant, error) {
	if len(p.Variants) == 0 {
		if len(selections) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product has no options")
		}
		return defaultVariant(p), nil
	}
	keys := OptionKeys(p)
	if err := checkKnownKeys(keys, selections); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if _, ok := selections[key]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("option %q must be selected", key))
		}
	}
	for i := range p.Variants {
		if p.Variants[i].Options.Equal(selections) {
			return &p.Variants[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "no variant matches the selected options")
}

func checkKnownKeys(keys []string, selections types.OptionMap) error {
	for key := range selections {
		known := false
		for _, candidate := range keys {
			if candidate == key {
				known = true
				break
			}
		}
		if !known {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown option %q", key))
		}
	}
	return nil
}

// distinctValues keeps the first-seen order of the variant rows so the shop
// front shows sizes and colors in the order they were entered.
func distinctValues(variants []*models.ProductVariant, key string) []string {
	values := make([]string, 0, len(variants))
	seen := make(map[string]struct{}, len(variants))
	for _, variant := range variants {
		value, ok := variant.Options[key]
		if !ok {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values
}

// defaultVariant synthesizes the implicit variant of an option-less product.
// It never exists as a row; orders created from it carry a NULL variant id.
func defaultVariant(p *models.Product) *models.ProductVariant {
	return &models.ProductVariant{
		ProductID:     p.ID,
		Options:       types.OptionMap{},
		PriceModifier: decimal.Zero,
		Active:        true,
	}
}
