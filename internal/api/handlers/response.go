// Package handlers holds the gin handlers of the v1 API. Every response uses
// the {"success","data","error","message"} envelope the PWA client expects.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/models"
)

type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{Success: true, Data: data, Message: message})
}

// fail maps err onto a status code. Infrastructure details are logged by the
// request logger through c.Error and never reach the client.
func fail(c *gin.Context, err error) {
	c.Error(err)

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, Response{Error: "Internal server error"})
		return
	}

	switch appErr.Kind {
	case apperrors.KindValidation:
		c.JSON(http.StatusBadRequest, Response{Error: "Validation failed", Message: appErr.Error()})
	case apperrors.KindNotFound:
		c.JSON(http.StatusNotFound, Response{Error: appErr.Msg})
	case apperrors.KindConflict:
		c.JSON(http.StatusConflict, Response{Error: appErr.Msg})
	case apperrors.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, Response{Error: appErr.Msg})
	case apperrors.KindDelivery:
		c.JSON(http.StatusBadGateway, Response{Error: appErr.Msg})
	default:
		c.JSON(http.StatusInternalServerError, Response{Error: "Internal server error"})
	}
}

// bindJSON decodes the body into v and answers 400 when it is malformed.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "Invalid request body", Message: err.Error()})
		return false
	}
	return true
}

// query helpers return apperrors validation errors naming the parameter.

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.Validation(name, "must be a positive integer")
	}
	return n, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Validation(name, "must be true or false")
	}
	return &b, nil
}

func queryDate(c *gin.Context, name string) (*models.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, apperrors.Validation(name, "must be a date (YYYY-MM-DD)")
	}
	return &d, nil
}

func pageRequest(c *gin.Context) (models.PageRequest, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return models.PageRequest{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return models.PageRequest{}, err
	}
	return models.PageRequest{Page: page, Limit: limit}, nil
}

func sortOrder(c *gin.Context) (string, error) {
	order := strings.ToLower(c.Query("sortOrder"))
	if order != "" && order != "asc" && order != "desc" {
		return "", apperrors.Validation("sortOrder", "must be asc or desc")
	}
	return order, nil
}
