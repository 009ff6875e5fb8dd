package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/neiist-dev/shop-backend/api/responses"
	"github.com/neiist-dev/shop-backend/api/validators"
	"github.com/neiist-dev/shop-backend/internal/catalog"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
	"github.com/neiist-dev/shop-backend/pkg/logger"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

// ListProducts returns the visible catalog, optionally narrowed by category
// or to featured products only.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		featured, err := validators.ParseQueryBool(r, "featured", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := catalog.ListFilters{
			Category:     strings.TrimSpace(r.URL.Query().Get("type")),
			FeaturedOnly: featured,
		}

		products, err := svc.ListProducts(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		ctx := r.Context()
		productID := chi.URLParam(r, "productId")
		if logg != nil {
			ctx = logg.WithProductID(ctx, productID)
		}

		product, err := svc.GetProduct(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductOptions answers "which dimension comes next" for a partial
// selection passed as query pairs, e.g. ?size=M.
func ProductOptions(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		ctx := r.Context()
		productID := chi.URLParam(r, "productId")
		if logg != nil {
			ctx = logg.WithProductID(ctx, productID)
		}

		selections, err := validators.SelectionsFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		values, err := svc.OptionValues(ctx, productID, selections)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, values)
	}
}

type resolveVariantRequest struct {
	Selections types.OptionMap `json:"selections"`
}

// ResolveProductVariant maps a complete selection onto a single variant.
func ResolveProductVariant(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		ctx := r.Context()
		productID := chi.URLParam(r, "productId")
		if logg != nil {
			ctx = logg.WithProductID(ctx, productID)
		}

		var req resolveVariantRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resolved, err := svc.ResolveVariant(ctx, productID, req.Selections)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolved)
	}
}
