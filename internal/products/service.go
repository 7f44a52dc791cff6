package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/lapzone/lapzone-backend/pkg/db/models"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

// Service exposes read access to the product catalog.
type Service interface {
	Get(ctx context.Context, idOrSlug string) (*ProductDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
}

// Reader is the narrow catalog surface the cart depends on.
type Reader interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// ListInput filters and pages catalog listings.
type ListInput struct {
	Category string
	Brand    string
	Page     int
	PageSize int
}

// ListResult wraps a catalog page with the total row count.
type ListResult struct {
	Items    []ProductDTO `json:"items"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type catalogRepo interface {
	Reader
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, params ListParams) ([]models.Product, int64, error)
}

type service struct {
	repo catalogRepo
}

// NewService constructs the catalog service.
func NewService(repo catalogRepo) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, idOrSlug string) (*ProductDTO, error) {
	if idOrSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product identifier required")
	}

	var (
		product *models.Product
		err     error
	)
	if id, parseErr := strconv.ParseInt(idOrSlug, 10, 64); parseErr == nil {
		product, err = s.repo.FindByID(ctx, id)
	} else {
		product, err = s.repo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	return toProductDTO(product), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	size := input.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	rows, total, err := s.repo.List(ctx, ListParams{
		Category: input.Category,
		Brand:    input.Brand,
		Limit:    size,
		Offset:   (page - 1) * size,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *toProductDTO(&rows[i]))
	}

	return &ListResult{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: size,
	}, nil
}
