package handler

import (
	"net/http"

	"boigordo/internal/apierror"
	"boigordo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PensHandler struct{ svc service.InterventionService }

func NewPensHandler(svc service.InterventionService) *PensHandler { return &PensHandler{svc: svc} }

// Cost godoc
// @Summary      Weighted cost of a pen
// @Description  Average cost per head and average weight over the pen's active lots, weighted by head count.
// @Tags         pens
// @Produce      json
// @Param        id  path     string true "Pen UUID"
// @Success      200 {object} dto.PenCostResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /v1/pens/{id}/cost [get]
func (h *PensHandler) Cost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid pen id"))
		return
	}
	resp, err := h.svc.GetPenCost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
