package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jaothui-api-server/internal/api/middleware"
	"jaothui-api-server/internal/farm"
)

type FarmHandler struct {
	Farms *farm.Service
}

func (h *FarmHandler) ListFarms(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	farms, err := h.Farms.ListOwned(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, farms, "")
}

func (h *FarmHandler) CreateFarm(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	var in farm.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	f, err := h.Farms.Create(c.Request.Context(), p.ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, f, "Farm created successfully")
}
