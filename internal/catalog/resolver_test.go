package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neiist-dev/shop-backend/pkg/db/models"
	"github.com/neiist-dev/shop-backend/pkg/enums"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

func sweatshirtProduct() *models.Product {
	stock := func(n int) *int { return &n }
	return &models.Product{
		ID:           "sweat-24-25",
		Name:         "Sweatshirt 24/25",
		Category:     "clothing",
		Price:        decimal.RequireFromString("20.00"),
		StockType:    enums.StockTypeLimited,
		Visible:      true,
		OptionSchema: []string{"size", "color"},
		Variants: []models.ProductVariant{
			{ID: uuid.New(), ProductID: "sweat-24-25", Options: types.OptionMap{"size": "S", "color": "azul"}, PriceModifier: decimal.Zero, StockQuantity: stock(3), Active: true},
			{ID: uuid.New(), ProductID: "sweat-24-25", Options: types.OptionMap{"size": "M", "color": "azul"}, PriceModifier: decimal.RequireFromString("2.00"), StockQuantity: stock(5), Active: true},
			{ID: uuid.New(), ProductID: "sweat-24-25", Options: types.OptionMap{"size": "M", "color": "preto"}, PriceModifier: decimal.RequireFromString("2.00"), StockQuantity: stock(0), Active: false},
			{ID: uuid.New(), ProductID: "sweat-24-25", Options: types.OptionMap{"size": "L", "color": "preto"}, PriceModifier: decimal.RequireFromString("4.00"), StockQuantity: stock(1), Active: true},
		},
	}
}

func TestOptionKeysUsesSchemaOrder(t *testing.T) {
	product := sweatshirtProduct()
	keys := OptionKeys(product)
	if len(keys) != 2 || keys[0] != "size" || keys[1] != "color" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestOptionKeysFallsBackToSortedVariantKeys(t *testing.T) {
	product := sweatshirtProduct()
	product.OptionSchema = nil
	keys := OptionKeys(product)
	if len(keys) != 2 || keys[0] != "color" || keys[1] != "size" {
		t.Fatalf("expected sorted fallback, got %v", keys)
	}
}

func TestNextOptionNarrowsCandidates(t *testing.T) {
	product := sweatshirtProduct()

	key, values, err := NextOption(product, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "size" {
		t.Fatalf("expected size first, got %s", key)
	}
	if len(values) != 3 || values[0] != "S" || values[1] != "M" || values[2] != "L" {
		t.Fatalf("unexpected size values %v", values)
	}

	key, values, err = NextOption(product, types.OptionMap{"size": "M"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "color" {
		t.Fatalf("expected color next, got %s", key)
	}
	if len(values) != 2 || values[0] != "azul" || values[1] != "preto" {
		t.Fatalf("unexpected color values %v", values)
	}

	key, values, err = NextOption(product, types.OptionMap{"size": "S"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 1 || values[0] != "azul" {
		t.Fatalf("S only comes in azul, got %v", values)
	}

	key, _, err = NextOption(product, types.OptionMap{"size": "M", "color": "preto"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "" {
		t.Fatalf("selection is complete, got next key %s", key)
	}
}

func TestNextOptionRejectsImpossibleSelection(t *testing.T) {
	product := sweatshirtProduct()

	_, _, err := NextOption(product, types.OptionMap{"size": "XL"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, _, err = NextOption(product, types.OptionMap{"fabric": "cotton"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown key, got %v", err)
	}
}

// Every value offered at any step must lead to at least one concrete variant.
func TestOfferedValuesAlwaysResolve(t *testing.T) {
	product := sweatshirtProduct()

	var walk func(selections types.OptionMap)
	walk = func(selections types.OptionMap) {
		key, values, err := NextOption(product, selections)
		if err != nil {
			t.Fatalf("narrowing failed at %v: %v", selections, err)
		}
		if key == "" {
			if _, err := ResolveVariant(product, selections); err != nil {
				t.Fatalf("complete selection %v did not resolve: %v", selections, err)
			}
			return
		}
		if len(values) == 0 {
			t.Fatalf("dimension %s offered no values at %v", key, selections)
		}
		for _, value := range values {
			next := selections.Clone()
			if next == nil {
				next = types.OptionMap{}
			}
			next[key] = value
			walk(next)
		}
	}
	walk(nil)
}

func TestResolveVariantMatchesExactOptions(t *testing.T) {
	product := sweatshirtProduct()

	variant, err := ResolveVariant(product, types.OptionMap{"size": "M", "color": "azul"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !variant.PriceModifier.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("resolved wrong variant: %v", variant.Options)
	}

	_, err = ResolveVariant(product, types.OptionMap{"size": "M"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("incomplete selection must fail, got %v", err)
	}

	_, err = ResolveVariant(product, types.OptionMap{"size": "S", "color": "preto"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("nonexistent combination must fail, got %v", err)
	}
}

func TestResolveVariantOptionlessProduct(t *testing.T) {
	product := &models.Product{
		ID:        "caneca",
		Name:      "Caneca NEIIST",
		Category:  "accessories",
		Price:     decimal.RequireFromString("8.50"),
		StockType: enums.StockTypeOnDemand,
		Visible:   true,
	}

	variant, err := ResolveVariant(product, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if variant.ID != uuid.Nil {
		t.Fatalf("implicit variant must not carry a row id")
	}
	if !variant.Available() {
		t.Fatalf("implicit variant must be available")
	}
	if variant.LimitedStock() {
		t.Fatalf("implicit variant must not track stock")
	}

	_, err = ResolveVariant(product, types.OptionMap{"size": "M"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("selections on option-less product must fail, got %v", err)
	}
}
