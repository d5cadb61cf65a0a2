package handler

import (
	"net/http"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/middleware"
	"github.com/Cozta1/sistema-encomendas-V2/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the team's clients, suppliers and products.
type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ── Clients ──────────────────────────────────────────────────────────────────

// CreateClient godoc
// @Summary      Cadastrar cliente
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        team_id path string true "UUID da equipe"
// @Param        body    body dto.CreateClientRequest true "Cliente"
// @Success      201 {object} dto.ClientResponse
// @Failure      409 {object} apierror.APIError
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/teams/{team_id}/clients [post]
func (h *CatalogHandler) CreateClient(c *gin.Context) {
	var req dto.CreateClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateClient(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListClients godoc
// @Summary      Listar clientes
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        team_id path  string true  "UUID da equipe"
// @Param        q       query string false "Busca por nome, código, endereço, bairro ou telefone"
// @Param        page    query int    false "Página (default 1)"
// @Success      200 {object} dto.ClientListResponse
// @Router       /v1/teams/{team_id}/clients [get]
func (h *CatalogHandler) ListClients(c *gin.Context) {
	var f dto.CatalogFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.ListClients(c.Request.Context(), middleware.GetTenant(c), f)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetClient(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetClient(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Suppliers ────────────────────────────────────────────────────────────────

func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateSupplier(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	var f dto.CatalogFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.ListSuppliers(c.Request.Context(), middleware.GetTenant(c), f)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetSupplier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetSupplier(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Products ─────────────────────────────────────────────────────────────────

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProduct(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var f dto.CatalogFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.ListProducts(c.Request.Context(), middleware.GetTenant(c), f)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
