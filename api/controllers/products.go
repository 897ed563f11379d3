package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bizops-backend/api/responses"
	"github.com/angelmondragon/bizops-backend/api/validators"
	productsvc "github.com/angelmondragon/bizops-backend/internal/products"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

const maxSearchLength = 100

// ProductList returns the tenant catalog filtered by status, low_stock and search.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseProductStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lowStock, err := validators.ParseQueryBool(r, "low_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := productsvc.ListProductsFilters{
			Status:   status,
			LowStock: lowStock,
			Search:   validators.SanitizeString(r.URL.Query().Get("search"), maxSearchLength),
		}
		list, err := svc.ListProducts(r.Context(), actor.TenantID, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), actor.TenantID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductCreate handles catalog creation. Stock is seeded from opening_quantity.
func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), actor.TenantID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func ProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), actor.TenantID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), actor.TenantID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type createProductRequest struct {
	SKU             string          `json:"sku" validate:"required,max=64"`
	Name            string          `json:"name" validate:"required,min=3,max=255"`
	Description     *string         `json:"description,omitempty" validate:"omitempty,max=1000"`
	CostPrice       decimal.Decimal `json:"cost_price" validate:"money"`
	SellingPrice    decimal.Decimal `json:"selling_price" validate:"money"`
	OpeningQuantity int             `json:"opening_quantity" validate:"gte=0"`
	ReorderLevel    *int            `json:"reorder_level,omitempty" validate:"omitempty,gte=0"`
	Status          *string         `json:"status,omitempty"`
}

func (r createProductRequest) toCreateInput() (productsvc.CreateProductInput, error) {
	status, err := parseProductStatus(r.Status)
	if err != nil {
		return productsvc.CreateProductInput{}, err
	}
	return productsvc.CreateProductInput{
		SKU:             strings.TrimSpace(r.SKU),
		Name:            strings.TrimSpace(r.Name),
		Description:     r.Description,
		CostPrice:       r.CostPrice,
		SellingPrice:    r.SellingPrice,
		OpeningQuantity: r.OpeningQuantity,
		ReorderLevel:    r.ReorderLevel,
		Status:          status,
	}, nil
}

type updateProductRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description  *string          `json:"description,omitempty" validate:"omitempty,max=1000"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty" validate:"omitempty,money"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty" validate:"omitempty,money"`
	ReorderLevel *int             `json:"reorder_level,omitempty" validate:"omitempty,gte=0"`
	Status       *string          `json:"status,omitempty"`
}

func (r updateProductRequest) toUpdateInput() (productsvc.UpdateProductInput, error) {
	status, err := parseProductStatus(r.Status)
	if err != nil {
		return productsvc.UpdateProductInput{}, err
	}
	input := productsvc.UpdateProductInput{
		Description:  r.Description,
		CostPrice:    r.CostPrice,
		SellingPrice: r.SellingPrice,
		ReorderLevel: r.ReorderLevel,
		Status:       status,
	}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		input.Name = &name
	}
	return input, nil
}

func parseProductStatus(raw *string) (*enums.ProductStatus, error) {
	if raw == nil {
		return nil, nil
	}
	status, err := enums.ParseProductStatus(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return &status, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
