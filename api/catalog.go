package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

// CRUDRepository is the surface of repository.CRUD the catalog endpoints use.
type CRUDRepository[T any] interface {
	Create(ctx context.Context, item *T) (*T, error)
	Get(ctx context.Context, id int64) (*T, error)
	GetAll(ctx context.Context) ([]T, error)
	Update(ctx context.Context, id int64, item *T) (*T, error)
	Destroy(ctx context.Context, id int64) error
}

// validatable is satisfied by *T for every catalog entity.
type validatable[T any] interface {
	*T
	Validate() error
}

// CatalogHandler serves create/get/list/update/delete for one entity type.
type CatalogHandler[T any, PT validatable[T]] struct {
	repo CRUDRepository[T]
}

func NewCatalogHandler[T any, PT validatable[T]](repo CRUDRepository[T]) *CatalogHandler[T, PT] {
	return &CatalogHandler[T, PT]{repo: repo}
}

func (h *CatalogHandler[T, PT]) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.DELETE("/:id", h.destroy)
}

func (h *CatalogHandler[T, PT]) bind(c *gin.Context) (*T, bool) {
	item := new(T)
	if err := c.ShouldBindJSON(item); err != nil {
		fail(c, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return nil, false
	}
	if err := PT(item).Validate(); err != nil {
		fail(c, err)
		return nil, false
	}
	return item, true
}

func (h *CatalogHandler[T, PT]) create(c *gin.Context) {
	item, ok := h.bind(c)
	if !ok {
		return
	}
	created, err := h.repo.Create(c.Request.Context(), item)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, created)
}

func (h *CatalogHandler[T, PT]) list(c *gin.Context) {
	items, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}

func (h *CatalogHandler[T, PT]) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, item)
}

func (h *CatalogHandler[T, PT]) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, ok := h.bind(c)
	if !ok {
		return
	}
	updated, err := h.repo.Update(c.Request.Context(), id, item)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, updated)
}

func (h *CatalogHandler[T, PT]) destroy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.repo.Destroy(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, map[string]int64{"id": id})
}
