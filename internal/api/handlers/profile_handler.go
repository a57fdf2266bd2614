package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jaothui-api-server/internal/api/middleware"
	"jaothui-api-server/internal/farm"
	"jaothui-api-server/internal/profile"
)

type ProfileHandler struct {
	Profiles *profile.Service
	Farms    *farm.Service
}

type profileResponse struct {
	Profile any `json:"profile"`
	Farms   any `json:"farms"`
}

// GetProfile returns the caller's profile and owned farms. A caller who never
// completed a profile gets 404 so the client can route to onboarding.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, _ := middleware.Identity(c)

	p, err := h.Profiles.Get(c.Request.Context(), id.Subject)
	if err != nil {
		fail(c, err)
		return
	}
	farms, err := h.Farms.ListOwned(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, profileResponse{Profile: p, Farms: farms}, "")
}

func (h *ProfileHandler) CompleteProfile(c *gin.Context) {
	id, _ := middleware.Identity(c)

	var in profile.CompleteInput
	if !bindJSON(c, &in) {
		return
	}

	p, err := h.Profiles.Complete(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	farms, err := h.Farms.ListOwned(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, profileResponse{Profile: p, Farms: farms}, "Profile completed successfully")
}
