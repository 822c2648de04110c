package handler

import (
	"errors"
	"net/http"

	"boigordo/internal/apierror"
	"boigordo/internal/dto"
	"boigordo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InterventionsHandler struct{ svc service.InterventionService }

func NewInterventionsHandler(svc service.InterventionService) *InterventionsHandler {
	return &InterventionsHandler{svc: svc}
}

// CreateHealth godoc
// @Summary      Register a health intervention
// @Description  Records a vaccine, medication or treatment. A positive cost is added to the lot's health and total cost in the same transaction.
// @Tags         interventions
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateHealthInterventionRequest true "Health intervention"
// @Success      201  {object} dto.HealthInterventionResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/interventions/health [post]
func (h *InterventionsHandler) CreateHealth(c *gin.Context) {
	var req dto.CreateHealthInterventionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateHealthIntervention(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CreateMortality godoc
// @Summary      Register deaths in a pen
// @Description  Values the dead animals at the pen's weighted cost, spreads the deaths across the pen's lots (or charges one lot), and books a non-cash loss in the monthly analysis.
// @Tags         interventions
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateMortalityRequest true "Mortality event"
// @Success      201  {object} dto.MortalityResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/interventions/mortality [post]
func (h *InterventionsHandler) CreateMortality(c *gin.Context) {
	var req dto.CreateMortalityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateMortalityRecord(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CreateMovement godoc
// @Summary      Move animals between pens
// @Description  Transfers part of a lot to another pen. Fails when the destination lacks capacity or the source link holds fewer animals.
// @Tags         interventions
// @Accept       json
// @Produce      json
// @Param        body body dto.CreatePenMovementRequest true "Pen movement"
// @Success      201  {object} dto.PenMovementResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/interventions/movements [post]
func (h *InterventionsHandler) CreateMovement(c *gin.Context) {
	var req dto.CreatePenMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreatePenMovement(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CreateWeight godoc
// @Summary      Register a weighing
// @Description  Stores the reading with its daily gain against the previous one and the projected slaughter weight.
// @Tags         interventions
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateWeightReadingRequest true "Weight reading"
// @Success      201  {object} dto.WeightReadingResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/interventions/weights [post]
func (h *InterventionsHandler) CreateWeight(c *gin.Context) {
	var req dto.CreateWeightReadingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateWeightReading(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// History godoc
// @Summary      Intervention history
// @Description  All four record kinds, newest first. The date range applies only when both bounds are given.
// @Tags         interventions
// @Produce      json
// @Param        lot_id     query string false "Lot UUID"
// @Param        pen_id     query string false "Pen UUID (movements match source or destination)"
// @Param        start_date query string false "YYYY-MM-DD"
// @Param        end_date   query string false "YYYY-MM-DD, inclusive"
// @Param        type       query string false "health | mortality | movement | weight"
// @Success      200  {object} dto.InterventionHistoryResponse
// @Failure      400  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/interventions/history [get]
func (h *InterventionsHandler) History(c *gin.Context) {
	var filter dto.InterventionHistoryFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.GetInterventionHistory(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Statistics godoc
// @Summary      Intervention statistics
// @Description  Counters, mortality loss, average daily gain and herd totals. When the figures cannot be computed the body carries zeros with degraded=true and the status is 503.
// @Tags         interventions
// @Produce      json
// @Param        cycle_id query string false "Production cycle UUID"
// @Success      200  {object} dto.InterventionStatisticsResponse
// @Failure      400  {object} apierror.APIError
// @Failure      503  {object} dto.InterventionStatisticsResponse
// @Router       /v1/interventions/statistics [get]
func (h *InterventionsHandler) Statistics(c *gin.Context) {
	var cycleID *uuid.UUID
	if raw := c.Query("cycle_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid cycle_id"))
			return
		}
		cycleID = &id
	}

	resp, err := h.svc.GetInterventionStatistics(c.Request.Context(), cycleID)
	if err != nil {
		if resp != nil && errors.Is(err, apierror.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
