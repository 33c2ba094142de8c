package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"tabi/pkg/utils"
)

// paging reads page and pageSize, answering 400 itself when they are invalid.
func paging(c *gin.Context, defaultSize int) (page, pageSize int, ok bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		utils.HandleServiceError(c, utils.ErrInvalidPage)
		return 0, 0, false
	}

	pageSize, err = strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultSize)))
	if err != nil || pageSize < 1 || pageSize > 100 {
		utils.HandleServiceError(c, utils.ErrInvalidPageSize)
		return 0, 0, false
	}
	return page, pageSize, true
}
