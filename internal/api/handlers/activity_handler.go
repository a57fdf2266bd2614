package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jaothui-api-server/internal/activity"
	"jaothui-api-server/internal/api/middleware"
	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/models"
)

type ActivityHandler struct {
	Activities *activity.Service
}

func (h *ActivityHandler) ListActivities(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	in, err := activityListInput(c)
	if err != nil {
		fail(c, err)
		return
	}

	page, err := h.Activities.List(c.Request.Context(), p.ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, page, "")
}

func activityListInput(c *gin.Context) (activity.ListInput, error) {
	var in activity.ListInput
	var err error

	if in.PageRequest, err = pageRequest(c); err != nil {
		return in, err
	}
	if in.SortOrder, err = sortOrder(c); err != nil {
		return in, err
	}
	if in.HasReminder, err = queryBool(c, "hasReminder"); err != nil {
		return in, err
	}

	from, err := queryDate(c, "dateFrom")
	if err != nil {
		return in, err
	}
	if from != nil {
		in.From = &from.Time
	}
	to, err := queryDate(c, "dateTo")
	if err != nil {
		return in, err
	}
	if to != nil {
		in.To = &to.Time
	}

	if v := c.Query("status"); v != "" {
		s := models.ActivityStatus(v)
		if !s.Valid() {
			return in, apperrors.Validation("status", "must be one of [PENDING COMPLETED CANCELLED OVERDUE]")
		}
		in.Status = &s
	}

	in.FarmID = c.Query("farmId")
	in.AnimalID = c.Query("animalId")
	in.SortBy = c.Query("sortBy")
	return in, nil
}

func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	var in activity.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	a, err := h.Activities.Create(c.Request.Context(), p.ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, a, "Activity created successfully")
}

func (h *ActivityHandler) GetActivity(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	a, err := h.Activities.Get(c.Request.Context(), p.ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a, "")
}

func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	var in activity.UpdateInput
	if !bindJSON(c, &in) {
		return
	}

	a, err := h.Activities.Update(c.Request.Context(), p.ID, c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a, "Activity updated successfully")
}

func (h *ActivityHandler) ChangeStatus(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	var in activity.StatusInput
	if !bindJSON(c, &in) {
		return
	}

	a, err := h.Activities.ChangeStatus(c.Request.Context(), p.ID, c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a, "Activity status updated successfully")
}

func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	if err := h.Activities.Delete(c.Request.Context(), p.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil, "Activity deleted successfully")
}
