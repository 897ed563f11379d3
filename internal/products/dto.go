package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU             string
	Name            string
	Description     *string
	CostPrice       decimal.Decimal
	SellingPrice    decimal.Decimal
	OpeningQuantity int
	ReorderLevel    *int
	Status          *enums.ProductStatus
}

// UpdateProductInput holds optional mutation values. Stock is not editable here.
type UpdateProductInput struct {
	Name         *string
	Description  *string
	CostPrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
	ReorderLevel *int
	Status       *enums.ProductStatus
}

// ListProductsFilters are the knobs of the catalog listing.
type ListProductsFilters struct {
	Status   *enums.ProductStatus
	LowStock bool
	Search   string
}

// ProductDTO is the product payload returned to clients.
type ProductDTO struct {
	ID               uuid.UUID           `json:"id"`
	TenantID         uuid.UUID           `json:"tenant_id"`
	SKU              string              `json:"sku"`
	Name             string              `json:"name"`
	Description      *string             `json:"description,omitempty"`
	CostPrice        decimal.Decimal     `json:"cost_price"`
	SellingPrice     decimal.Decimal     `json:"selling_price"`
	QuantityOnHand   int                 `json:"quantity_on_hand"`
	OpeningQuantity  int                 `json:"opening_quantity"`
	ReorderLevel     int                 `json:"reorder_level"`
	Status           enums.ProductStatus `json:"status"`
	IsLowStock       bool                `json:"is_low_stock"`
	MarginPercentage decimal.Decimal     `json:"margin_percentage"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type ProductList = pagination.Page[ProductDTO]

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:               product.ID,
		TenantID:         product.TenantID,
		SKU:              product.SKU,
		Name:             product.Name,
		Description:      product.Description,
		CostPrice:        product.CostPrice,
		SellingPrice:     product.SellingPrice,
		QuantityOnHand:   product.QuantityOnHand,
		OpeningQuantity:  product.OpeningQuantity,
		ReorderLevel:     product.ReorderLevel,
		Status:           product.Status,
		IsLowStock:       product.IsLowStock(),
		MarginPercentage: product.MarginPercentage(),
		CreatedAt:        product.CreatedAt,
		UpdatedAt:        product.UpdatedAt,
	}
}
