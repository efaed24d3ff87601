package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/middleware"
	"github.com/yukikurage/issue-tracker-api/internal/services"
)

// CatalogHandler serves the reference tables and products.
type CatalogHandler struct {
	lookupService  *services.LookupService
	productService *services.ProductService
}

func NewCatalogHandler(lookupService *services.LookupService, productService *services.ProductService) *CatalogHandler {
	return &CatalogHandler{
		lookupService:  lookupService,
		productService: productService,
	}
}

func (h *CatalogHandler) ListStatuses(c *gin.Context) {
	rows, err := h.lookupService.Statuses(c.Request.Context(), middleware.GetPrincipal(c))
	respondList(c, "statuses", rows, err)
}

func (h *CatalogHandler) ListPriorities(c *gin.Context) {
	rows, err := h.lookupService.Priorities(c.Request.Context(), middleware.GetPrincipal(c))
	respondList(c, "priorities", rows, err)
}

func (h *CatalogHandler) ListTypes(c *gin.Context) {
	rows, err := h.lookupService.Types(c.Request.Context(), middleware.GetPrincipal(c))
	respondList(c, "types", rows, err)
}

func (h *CatalogHandler) ListRoles(c *gin.Context) {
	rows, err := h.lookupService.Roles(c.Request.Context(), middleware.GetPrincipal(c))
	respondList(c, "roles", rows, err)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	rows, err := h.productService.List(c.Request.Context(), middleware.GetPrincipal(c))
	respondList(c, "products", rows, err)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type productRequest struct {
	Name string `json:"product_name" binding:"required"`
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	product, err := h.productService.Create(c.Request.Context(), middleware.GetPrincipal(c), req.Name)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	product, err := h.productService.Update(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c), req.Name)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.Delete(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c)); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func respondList[T any](c *gin.Context, key string, rows []T, err error) {
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	if rows == nil {
		rows = []T{}
	}
	c.JSON(http.StatusOK, gin.H{key: rows})
}
