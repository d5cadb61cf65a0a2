package handler

import (
	"net/http"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/middleware"
	"github.com/Cozta1/sistema-encomendas-V2/internal/service"

	"github.com/gin-gonic/gin"
)

type DeliveriesHandler struct{ svc service.DeliveryService }

func NewDeliveriesHandler(svc service.DeliveryService) *DeliveriesHandler {
	return &DeliveriesHandler{svc: svc}
}

// Schedule godoc
// @Summary      Agendar entrega
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        team_id path string true "UUID da equipe"
// @Param        id      path string true "UUID da encomenda"
// @Param        body    body dto.ScheduleDeliveryRequest true "Entrega"
// @Success      201 {object} dto.DeliveryResponse
// @Failure      409 {object} apierror.APIError "Entrega já agendada (warning)"
// @Router       /v1/teams/{team_id}/orders/{id}/delivery [post]
func (h *DeliveriesHandler) Schedule(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ScheduleDeliveryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Schedule(c.Request.Context(), middleware.GetTenant(c), orderID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DeliveriesHandler) Get(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.GetTenant(c), orderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DeliveriesHandler) Edit(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.EditDeliveryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Edit(c.Request.Context(), middleware.GetTenant(c), orderID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Complete godoc
// @Summary      Concluir entrega
// @Description  Registra a conclusão e marca a encomenda como entregue. Repetir a chamada devolve o estado salvo com already_completed=true.
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        team_id path string true "UUID da equipe"
// @Param        id      path string true "UUID da encomenda"
// @Param        body    body dto.CompleteDeliveryRequest false "Conclusão"
// @Success      200 {object} dto.CompleteDeliveryResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/teams/{team_id}/orders/{id}/delivery/complete [post]
func (h *DeliveriesHandler) Complete(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CompleteDeliveryRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.MarkCompleted(c.Request.Context(), middleware.GetTenant(c), orderID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
