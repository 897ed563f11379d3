package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bizops-backend/api/responses"
	"github.com/angelmondragon/bizops-backend/api/validators"
	"github.com/angelmondragon/bizops-backend/internal/inventory"
	productsvc "github.com/angelmondragon/bizops-backend/internal/products"
	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

type transactionDTO struct {
	ID          uuid.UUID             `json:"id"`
	ProductID   uuid.UUID             `json:"product_id"`
	Type        enums.TransactionType `json:"type"`
	Quantity    int                   `json:"quantity"`
	ReferenceNo *string               `json:"reference_no,omitempty"`
	Notes       *string               `json:"notes,omitempty"`
	CreatedBy   *uuid.UUID            `json:"created_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

func newTransactionDTO(tx *models.InventoryTransaction) transactionDTO {
	return transactionDTO{
		ID:          tx.ID,
		ProductID:   tx.ProductID,
		Type:        tx.Type,
		Quantity:    tx.Quantity,
		ReferenceNo: tx.ReferenceNo,
		Notes:       tx.Notes,
		CreatedBy:   tx.CreatedBy,
		CreatedAt:   tx.CreatedAt,
	}
}

type adjustStockRequest struct {
	ProductID      string  `json:"product_id" validate:"required,uuid"`
	QuantityChange int     `json:"quantity_change"`
	Reason         *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type adjustStockResponse struct {
	Product     *productsvc.ProductDTO `json:"product"`
	Transaction transactionDTO         `json:"transaction"`
}

// InventoryAdjustStock applies a manual signed correction through the ledger.
func InventoryAdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		result, err := svc.AdjustStock(r.Context(), actor.TenantID, actor.UserID, inventory.AdjustStockInput{
			ProductID: productID,
			Delta:     payload.QuantityChange,
			Reason:    payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adjustStockResponse{
			Product:     productsvc.NewProductDTO(result.Product),
			Transaction: newTransactionDTO(result.Transaction),
		})
	}
}

func InventoryTransactions(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
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
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txType, err := validators.ParseQueryEnum(r, "type", enums.ParseTransactionType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListTransactions(r.Context(), actor.TenantID, inventory.TransactionFilters{
			ProductID: productID,
			Type:      txType,
		}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.Page[transactionDTO]{
			Items:      make([]transactionDTO, 0, len(list.Items)),
			NextCursor: list.NextCursor,
		}
		for i := range list.Items {
			page.Items = append(page.Items, newTransactionDTO(&list.Items[i]))
		}
		responses.WriteSuccess(w, page)
	}
}

func InventoryLowStockAlerts(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.LowStockAlerts(r.Context(), actor.TenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]*productsvc.ProductDTO, 0, len(products))
		for i := range products {
			items = append(items, productsvc.NewProductDTO(&products[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "count": len(items)})
	}
}
