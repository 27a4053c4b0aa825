package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/azariak/PolymarketDataVisualizer/internal/address"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	Respond(c, http.StatusOK, data, meta)
}

// Respond writes a success envelope with a status other than 200.
func Respond(c *gin.Context, status int, data any, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// addressError answers 400 with the offending field when err is an
// *address.FieldError and reports whether it did.
func addressError(c *gin.Context, err error) bool {
	var fe *address.FieldError
	if !errors.As(err, &fe) {
		return false
	}
	Error(c, http.StatusBadRequest, fe.Message, map[string]any{"field": fe.Field})
	return true
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}
