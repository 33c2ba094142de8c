package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tabi/internal/models/request_models"
	"tabi/internal/services"
	"tabi/pkg/utils"
)

type PlanController struct {
	planService services.PlanServiceInterface
}

func NewPlanController(planService services.PlanServiceInterface) *PlanController {
	return &PlanController{
		planService: planService,
	}
}

// CreatePlan godoc
// @Summary Request a travel plan
// @Description Queue a plan for generation. Poll GET /plans/{id} until it is ready or failed.
// @Tags Plans
// @Accept json
// @Produce json
// @Param request body request_models.CreatePlanRequest true "Trip description"
// @Success 202 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /plans [post]
func (p *PlanController) CreatePlan(c *gin.Context) {
	var req request_models.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	accepted, err := p.planService.CreatePlan(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.Header("Location", "/plans/"+accepted.ID)
	utils.RespondAccepted(c, accepted, "Plan is being generated")
}

// ListPlans godoc
// @Summary List my plans
// @Tags Plans
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(10)
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /plans [get]
func (p *PlanController) ListPlans(c *gin.Context) {
	page, pageSize, ok := paging(c, 10)
	if !ok {
		return
	}

	plans, err := p.planService.ListPlans(c.Request.Context(), c.GetString("user_id"), page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, plans, "Plans fetched successfully")
}

// GetPlan godoc
// @Summary Get one of my plans
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /plans/{id} [get]
func (p *PlanController) GetPlan(c *gin.Context) {
	plan, err := p.planService.GetPlan(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, plan, "Plan fetched successfully")
}
