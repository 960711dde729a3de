package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parkyoungho/marushop-backend/api/responses"
	"github.com/parkyoungho/marushop-backend/internal/catalog"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	pkgerrors "github.com/parkyoungho/marushop-backend/pkg/errors"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
)

type productResponse struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	SKU        string            `json:"sku"`
	PriceCents int               `json:"price_cents"`
	Currency   string            `json:"currency"`
	Variants   []variantResponse `json:"variants,omitempty"`
}

type variantResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceCents int       `json:"price_cents"`
}

func newProductResponse(product models.Product, variants []models.ProductVariant) productResponse {
	resp := productResponse{
		ID:         product.ID,
		Name:       product.Name,
		SKU:        product.SKU,
		PriceCents: product.PriceCents,
		Currency:   product.Currency.String(),
	}
	for _, variant := range variants {
		resp.Variants = append(resp.Variants, variantResponse{
			ID:         variant.ID,
			Name:       variant.Name,
			PriceCents: variant.PriceCents,
		})
	}
	return resp
}

// ProductList returns active catalog entries for the storefront grid.
func ProductList(repo *catalog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		products, err := repo.ListActive(r.Context(), 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products"))
			return
		}

		list := make([]productResponse, 0, len(products))
		for _, product := range products {
			list = append(list, newProductResponse(product, nil))
		}
		responses.WriteSuccess(w, list)
	}
}

// ProductDetail returns one product with its variants.
func ProductDetail(repo *catalog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := repo.FindProduct(r.Context(), productID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product"))
			return
		}

		variants, err := repo.ListVariants(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants"))
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product, variants))
	}
}
