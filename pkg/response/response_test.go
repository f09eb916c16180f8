package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessPaginated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SuccessPaginated(c, []int{1, 2}, 5, 1, 2)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Code int  `json:"code"`
		Data Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, int64(5), body.Data.Total)
	assert.Equal(t, 3, body.Data.TotalPages)
}

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Conflict(c, "trade is already closed")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"code":-1004,"message":"trade is already closed"}`, w.Body.String())
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, 0, NewPage(nil, 0, 1, 20).TotalPages)
	assert.Equal(t, 1, NewPage(nil, 20, 1, 20).TotalPages)
	assert.Equal(t, 2, NewPage(nil, 21, 1, 20).TotalPages)
	assert.Equal(t, 1, NewPage(nil, 3, 1, 0).PageSize)
}

func TestInsufficientFunds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	InsufficientFunds(c, "trading balance is zero")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":-2019,"message":"trading balance is zero"}`, w.Body.String())
}
