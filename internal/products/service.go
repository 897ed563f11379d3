package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/pkg/db"
	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
	"github.com/angelmondragon/bizops-backend/pkg/pagination"
)

const (
	minNameLength        = 3
	maxNameLength        = 255
	maxDescriptionLength = 1000
	maxSKULength         = 64
	defaultReorderLevel  = 10
)

// Service exposes tenant catalog management.
type Service interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error
	ListProducts(ctx context.Context, tenantID uuid.UUID, filters ListProductsFilters, params pagination.Params) (*ProductList, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// CreateProduct seeds quantity_on_hand from the opening quantity. No ledger
// row is written for the seed.
func (s *service) CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" || len(sku) > maxSKULength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required and must be at most 64 characters")
	}
	name := strings.TrimSpace(input.Name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateDescription(input.Description); err != nil {
		return nil, err
	}
	if err := validatePrice("cost_price", input.CostPrice); err != nil {
		return nil, err
	}
	if err := validatePrice("selling_price", input.SellingPrice); err != nil {
		return nil, err
	}
	if input.OpeningQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_on_hand must be non-negative")
	}
	reorder := defaultReorderLevel
	if input.ReorderLevel != nil {
		reorder = *input.ReorderLevel
	}
	if reorder < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder_level must be non-negative")
	}
	status := enums.ProductStatusActive
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		status = *input.Status
	}

	product := &models.Product{
		TenantID:        tenantID,
		SKU:             sku,
		Name:            name,
		Description:     input.Description,
		CostPrice:       input.CostPrice,
		SellingPrice:    input.SellingPrice,
		QuantityOnHand:  input.OpeningQuantity,
		OpeningQuantity: input.OpeningQuantity,
		ReorderLevel:    reorder,
		Status:          status,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "this SKU already exists").
				WithDetails(map[string]any{"sku": sku})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
	}

	s.log(ctx, "product.created", product)
	return NewProductDTO(product), nil
}

func (s *service) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadTenantProduct(ctx, s.repo, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// UpdateProduct applies a partial update. Stock columns are never written.
func (s *service) UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := validateUpdate(&input); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := s.loadTenantProduct(ctx, txRepo, tenantID, productID)
		if err != nil {
			return err
		}
		applyUpdateToProduct(product, input)
		if err := txRepo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		updated, err = txRepo.FindByID(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	s.log(ctx, "product.updated", updated)
	return NewProductDTO(updated), nil
}

// DeleteProduct refuses products that order lines or ledger rows reference.
func (s *service) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.loadTenantProduct(ctx, txRepo, tenantID, productID); err != nil {
			return err
		}
		used, err := txRepo.IsReferenced(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product references")
		}
		if used {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete product that has been used in orders")
		}
		if err := txRepo.DeleteProduct(ctx, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}

	if s.logg != nil {
		logCtx := s.logg.WithTenantID(s.logg.WithProductID(ctx, productID.String()), tenantID.String())
		s.logg.Info(logCtx, "product.deleted")
	}
	return nil
}

func (s *service) ListProducts(ctx context.Context, tenantID uuid.UUID, filters ListProductsFilters, params pagination.Params) (*ProductList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	rows, err := s.repo.ListProducts(ctx, productListQuery{
		TenantID: tenantID,
		Status:   filters.Status,
		LowStock: filters.LowStock,
		Search:   filters.Search,
		Limit:    params.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	page := pagination.Paginate(rows, params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	items := make([]ProductDTO, len(page.Items))
	for i := range page.Items {
		items[i] = *NewProductDTO(&page.Items[i])
	}
	return &ProductList{Items: items, NextCursor: page.NextCursor}, nil
}

func (s *service) loadTenantProduct(ctx context.Context, repo *Repository, tenantID, productID uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to tenant")
	}
	return product, nil
}

func (s *service) log(ctx context.Context, msg string, product *models.Product) {
	if s.logg == nil || product == nil {
		return
	}
	logCtx := s.logg.WithProductID(ctx, product.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"tenant_id": product.TenantID.String(),
		"sku":       product.SKU,
	})
	s.logg.Info(logCtx, msg)
}

func validateUpdate(input *UpdateProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := validateName(name); err != nil {
			return err
		}
		input.Name = &name
	}
	if err := validateDescription(input.Description); err != nil {
		return err
	}
	if input.CostPrice != nil {
		if err := validatePrice("cost_price", *input.CostPrice); err != nil {
			return err
		}
	}
	if input.SellingPrice != nil {
		if err := validatePrice("selling_price", *input.SellingPrice); err != nil {
			return err
		}
	}
	if input.ReorderLevel != nil && *input.ReorderLevel < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reorder_level must be non-negative")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	return nil
}

func validateName(name string) error {
	if n := len([]rune(name)); n < minNameLength || n > maxNameLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "name must be between 3 and 255 characters")
	}
	return nil
}

func validateDescription(description *string) error {
	if description != nil && len([]rune(*description)) > maxDescriptionLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "description must be at most 1000 characters")
	}
	return nil
}

func validatePrice(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must be non-negative")
	}
	if !value.Equal(value.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must have at most two decimal places")
	}
	return nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.CostPrice != nil {
		product.CostPrice = *input.CostPrice
	}
	if input.SellingPrice != nil {
		product.SellingPrice = *input.SellingPrice
	}
	if input.ReorderLevel != nil {
		product.ReorderLevel = *input.ReorderLevel
	}
	if input.Status != nil {
		product.Status = *input.Status
	}
}
