package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope codes. Zero means success; negative values identify the failure
// kind independently of the HTTP status.
const (
	CodeOK                = 0
	CodeFailed            = -1
	CodeUnauthorized      = -1001
	CodeForbidden         = -1002
	CodeNotFound          = -1003
	CodeConflict          = -1004
	CodeInsufficientFunds = -2019
)

// Response is the envelope every endpoint answers with
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Page is the data of a paginated listing
type Page struct {
	Items      any   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPage wraps one page of items with its position in the full listing.
func NewPage(items any, total int64, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = 1
	}
	return Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

func write(c *gin.Context, status, code int, message string, data any) {
	c.JSON(status, Response{Code: code, Message: message, Data: data})
}

func Success(c *gin.Context, data any) {
	write(c, http.StatusOK, CodeOK, "success", data)
}

func Created(c *gin.Context, data any) {
	write(c, http.StatusCreated, CodeOK, "created", data)
}

// SuccessPaginated answers with one page of a listing
func SuccessPaginated(c *gin.Context, items any, total int64, page, pageSize int) {
	Success(c, NewPage(items, total, page, pageSize))
}

// Error sends an envelope without data
func Error(c *gin.Context, status, code int, message string) {
	write(c, status, code, message, nil)
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeFailed, message)
}

// InsufficientFunds reports a balance too low for the requested operation
func InsufficientFunds(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeInsufficientFunds, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, CodeNotFound, message)
}

// Conflict reports a state transition that is no longer possible
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, CodeConflict, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeFailed, message)
}
