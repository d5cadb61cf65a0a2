package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/middleware"
	"github.com/Cozta1/sistema-encomendas-V2/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// Create godoc
// @Summary      Criar encomenda
// @Description  Cria a encomenda com todas as linhas em uma única transação. Cliente, produtos e fornecedores devem pertencer à equipe.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        team_id path string true "UUID da equipe"
// @Param        body    body dto.CreateOrderRequest true "Encomenda"
// @Success      201 {object} dto.OrderResponse
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/teams/{team_id}/orders [post]
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      Listar encomendas
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        team_id   path  string true  "UUID da equipe"
// @Param        status    query string false "created | quotation | approved | in_progress | ready | delivered | cancelled"
// @Param        client_id query string false "UUID do cliente"
// @Param        q         query string false "Busca por cliente, observações ou responsável"
// @Param        page      query int    false "Página (default 1)"
// @Success      200 {object} dto.OrderListResponse
// @Router       /v1/teams/{team_id}/orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var f dto.OrderFilter
	if !bindQuery(c, &f) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), middleware.GetTenant(c), f)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Edit godoc
// @Summary      Editar encomenda
// @Description  Altera cabeçalho e aplica o diff de linhas (add/update/delete); o total é recalculado na mesma transação.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        team_id path string true "UUID da equipe"
// @Param        id      path string true "UUID da encomenda"
// @Param        body    body dto.EditOrderRequest true "Alterações"
// @Success      200 {object} dto.OrderResponse
// @Failure      404 {object} apierror.APIError
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/teams/{team_id}/orders/{id} [put]
func (h *OrdersHandler) Edit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.EditOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Edit(c.Request.Context(), middleware.GetTenant(c), id, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), middleware.GetTenant(c), id, req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.GetTenant(c), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrdersHandler) Recompute(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Recompute(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF renders into a buffer first so a rendering failure still gets a JSON error.
func (h *OrdersHandler) PDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.RenderPDF(c.Request.Context(), middleware.GetTenant(c), id, &buf); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="encomenda-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Dashboard godoc
// @Summary      Painel da equipe
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        team_id path string true "UUID da equipe"
// @Success      200 {object} dto.DashboardResponse
// @Router       /v1/teams/{team_id}/dashboard [get]
func (h *OrdersHandler) Dashboard(c *gin.Context) {
	resp, err := h.svc.Dashboard(c.Request.Context(), middleware.GetTenant(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
