package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tabi/internal/agents"
	"tabi/pkg/utils"
)

// DevToolController runs a single agent tool by name. Routed only in DEV_MODE.
type DevToolController struct {
	tools *agents.Registry
}

func NewDevToolController(tools *agents.Registry) *DevToolController {
	return &DevToolController{tools: tools}
}

// ListTools godoc
// @Summary List agent tools with their parameter schemas
// @Tags Dev
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /dev/tools [get]
func (d *DevToolController) ListTools(c *gin.Context) {
	utils.RespondSuccess(c, d.tools.Definitions(), "Tools fetched successfully")
}

// RunTool godoc
// @Summary Run an agent tool
// @Tags Dev
// @Accept json
// @Produce json
// @Param name path string true "Tool name"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /dev/tools/{name} [post]
func (d *DevToolController) RunTool(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		utils.RespondError(c, http.StatusBadRequest, "Arguments must be a JSON object")
		return
	}

	out, err := d.tools.Execute(c.Request.Context(), c.Param("name"), body)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	var data any = out
	if json.Valid([]byte(out)) {
		data = json.RawMessage(out)
	}
	utils.RespondSuccess(c, gin.H{"tool": c.Param("name"), "result": data}, "Tool executed")
}
