package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tabi/internal/models/request_models"
	"tabi/internal/services"
	"tabi/pkg/utils"
)

// multipartSlack covers form fields and part headers around the file.
const multipartSlack = 1 << 20

type DocumentController struct {
	documentService services.DocumentServiceInterface
}

func NewDocumentController(documentService services.DocumentServiceInterface) *DocumentController {
	return &DocumentController{
		documentService: documentService,
	}
}

// UploadDocument godoc
// @Summary Upload a travel guide
// @Description PDF or UTF-8 text, at most 20 MB. Ingestion continues in the background.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Display name (max 64 characters)"
// @Param tags formData []string false "Tags"
// @Param document formData file true "PDF or text file"
// @Success 202 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 413 {object} utils.APIResponse
// @Failure 415 {object} utils.APIResponse
// @Security BearerAuth
// @Router /documents [post]
func (d *DocumentController) UploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxDocumentBytes+multipartSlack)

	var form request_models.UploadDocumentForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.HandleServiceError(c, utils.ErrDocumentTooLarge)
			return
		}
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	header, err := c.FormFile("document")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "The document file is required")
		return
	}
	if header.Size > services.MaxDocumentBytes {
		utils.HandleServiceError(c, utils.ErrDocumentTooLarge)
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Could not read the document")
		return
	}
	defer file.Close()

	doc, err := d.documentService.Upload(c.Request.Context(), c.GetString("user_id"), form, header.Filename, file)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondAccepted(c, doc, "Document is being processed")
}

// ListDocuments godoc
// @Summary List travel guides
// @Tags Documents
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /documents [get]
func (d *DocumentController) ListDocuments(c *gin.Context) {
	page, pageSize, ok := paging(c, 20)
	if !ok {
		return
	}

	docs, err := d.documentService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, docs, "Documents fetched successfully")
}

// GetDocument godoc
// @Summary Get a travel guide
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /documents/{id} [get]
func (d *DocumentController) GetDocument(c *gin.Context) {
	doc, err := d.documentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, doc, "Document fetched successfully")
}

// SearchDocuments godoc
// @Summary Semantic search over the travel guides
// @Tags Documents
// @Produce json
// @Param q query string true "Question"
// @Param limit query int false "Number of chunks" default(5)
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /documents/search [get]
func (d *DocumentController) SearchDocuments(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.CityInfoResults)))
	if err != nil || limit < 1 || limit > 50 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid limit (must be 1-50)")
		return
	}

	matches, err := d.documentService.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, matches, "Search completed")
}
