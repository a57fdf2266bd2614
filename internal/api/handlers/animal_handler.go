package handlers

import (
	"bufio"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jaothui-api-server/internal/animal"
	"jaothui-api-server/internal/api/middleware"
	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/models"
)

// MaxImageSize caps animal photo uploads.
const MaxImageSize = 5 << 20

type AnimalHandler struct {
	Animals *animal.Service
}

type generateIDRequest struct {
	AnimalType models.AnimalType `json:"animalType"`
	FarmID     string            `json:"farmId"`
}

func (h *AnimalHandler) ListAnimals(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	in, err := animalListInput(c)
	if err != nil {
		fail(c, err)
		return
	}

	page, err := h.Animals.List(c.Request.Context(), p.ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, page, "")
}

func animalListInput(c *gin.Context) (animal.ListInput, error) {
	pr, err := pageRequest(c)
	if err != nil {
		return animal.ListInput{}, err
	}
	order, err := sortOrder(c)
	if err != nil {
		return animal.ListInput{}, err
	}

	in := animal.ListInput{
		FarmID:      c.Query("farmId"),
		Search:      strings.TrimSpace(c.Query("search")),
		SortBy:      c.Query("sortBy"),
		SortOrder:   order,
		PageRequest: pr,
	}
	if v := c.Query("animalType"); v != "" {
		t := models.AnimalType(v)
		if !t.Valid() {
			return animal.ListInput{}, apperrors.Validation("animalType", "must be one of [BUFFALO CHICKEN COW PIG HORSE]")
		}
		in.AnimalType = &t
	}
	switch v := c.Query("status"); v {
	case "":
	case "ALL":
		in.AllStatuses = true
	default:
		s := models.AnimalStatus(v)
		if !s.Valid() {
			return animal.ListInput{}, apperrors.Validation("status", "must be one of [ACTIVE SOLD DECEASED TRANSFERRED ALL]")
		}
		in.Status = &s
	}
	return in, nil
}

func (h *AnimalHandler) CreateAnimal(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	var in animal.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	a, err := h.Animals.Create(c.Request.Context(), p.ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, a, "Animal created successfully")
}

func (h *AnimalHandler) GetAnimal(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	a, err := h.Animals.Get(c.Request.Context(), p.ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a, "")
}

func (h *AnimalHandler) UpdateAnimal(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	var in animal.UpdateInput
	if !bindJSON(c, &in) {
		return
	}

	a, err := h.Animals.Update(c.Request.Context(), p.ID, c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a, "Animal updated successfully")
}

func (h *AnimalHandler) GenerateID(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	var req generateIDRequest
	if !bindJSON(c, &req) {
		return
	}

	code, err := h.Animals.GenerateID(c.Request.Context(), p.ID, req.FarmID, req.AnimalType)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"animalId": code}, "")
}

func (h *AnimalHandler) CheckDuplicate(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	var in animal.CheckInput
	if !bindJSON(c, &in) {
		return
	}

	exists, err := h.Animals.CheckDuplicate(c.Request.Context(), p.ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	msg := "Animal ID is available"
	if exists {
		msg = "Animal ID already exists in this farm"
	}
	ok(c, http.StatusOK, gin.H{"exists": exists}, msg)
}

// UploadImage accepts a multipart "image" field.
func (h *AnimalHandler) UploadImage(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageSize+1<<20)
	fh, err := c.FormFile("image")
	if err != nil {
		fail(c, apperrors.Validation("image", "is required"))
		return
	}
	if fh.Size > MaxImageSize {
		fail(c, apperrors.Validation("image", "must be at most 5 MB"))
		return
	}

	file, err := fh.Open()
	if err != nil {
		fail(c, apperrors.Infrastructure(err, "reading upload"))
		return
	}
	defer file.Close()

	// sniff rather than trust the part header
	br := bufio.NewReaderSize(file, 512)
	head, _ := br.Peek(512)
	contentType := http.DetectContentType(head)

	a, err := h.Animals.UploadImage(c.Request.Context(), p.ID, c.Param("id"), br, contentType)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a, "Image uploaded successfully")
}
