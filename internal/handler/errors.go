package handler

import (
	"errors"
	"strconv"

	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/repository"
	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/pkg/response"
	"github.com/gin-gonic/gin"
)

// handleServiceError maps service error kinds to HTTP responses
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		response.InsufficientFunds(c, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		response.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrStaleRecord):
		response.Conflict(c, "record was modified concurrently, retry")
	case errors.Is(err, repository.ErrDuplicate):
		response.Conflict(c, err.Error())
	default:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		response.InternalError(c, "internal error")
	}
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// pagination reads page and page_size query parameters
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
