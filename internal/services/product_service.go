package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/issue-tracker-api/internal/authz"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound     = apierrors.New(apierrors.KindNotFound, "product not found")
	ErrProductNameRequired = apierrors.New(apierrors.KindBadRequest, "product_name cannot be empty")
	ErrProductNameTaken    = apierrors.New(apierrors.KindConflict, "product_name already exists")
)

// ProductService handles product administration
type ProductService struct {
	productRepo repository.ProductRepository
	metrics     *metrics.Metrics
}

// NewProductService creates a new ProductService
func NewProductService(productRepo repository.ProductRepository, m *metrics.Metrics) *ProductService {
	return &ProductService{productRepo: productRepo, metrics: m}
}

func (s *ProductService) List(ctx context.Context, p authz.Principal) ([]models.Product, error) {
	if err := authorize(s.metrics, p, authz.ProductList, nil); err != nil {
		return nil, err
	}
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, p authz.Principal, id uint64) (*models.Product, error) {
	if err := authorize(s.metrics, p, authz.ProductList, nil); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(err, ErrProductNotFound, "find product")
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, p authz.Principal, name string) (*models.Product, error) {
	if err := authorize(s.metrics, p, authz.ProductCreate, nil); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrProductNameRequired
	}
	product := &models.Product{Name: name}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, s.writeError(err, "create product")
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, p authz.Principal, id uint64, name string) (*models.Product, error) {
	if err := authorize(s.metrics, p, authz.ProductUpdate, nil); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrProductNameRequired
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(err, ErrProductNotFound, "find product")
	}
	product.Name = name
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, s.writeError(err, "update product")
	}
	return product, nil
}

// Delete removes a product; its issues keep existing without one.
func (s *ProductService) Delete(ctx context.Context, p authz.Principal, id uint64) error {
	if err := authorize(s.metrics, p, authz.ProductDelete, nil); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return s.writeError(err, "delete product")
	}
	return nil
}

func (s *ProductService) writeError(err error, op string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrProductNameTaken
	}
	return fail(err, ErrProductNotFound, op)
}
