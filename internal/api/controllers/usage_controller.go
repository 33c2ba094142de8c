package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tabi/internal/services"
	"tabi/pkg/utils"
)

type UsageController struct {
	usageService services.UsageServiceInterface
}

func NewUsageController(usageService services.UsageServiceInterface) *UsageController {
	return &UsageController{usageService: usageService}
}

// GetUsage godoc
// @Summary External API usage and estimated cost
// @Tags Admin
// @Produce json
// @Param hours query int false "Look-back window in hours" default(24)
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /usage [get]
func (u *UsageController) GetUsage(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours < 1 || hours > 24*90 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid hours (must be 1-2160)")
		return
	}

	summary, err := u.usageService.Summary(c.Request.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, summary, "Usage fetched successfully")
}
