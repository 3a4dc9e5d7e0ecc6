package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/service"
	"github.com/noah-isme/speaker-match-api/pkg/response"
)

type industryService interface {
	List(ctx context.Context, filter models.IndustryFilter) ([]models.IndustryFocus, error)
	Create(ctx context.Context, req service.IndustryRequest, actor models.UserInfo, meta models.RequestMeta) (*models.IndustryFocus, error)
	Update(ctx context.Context, id string, req service.IndustryRequest, actor models.UserInfo, meta models.RequestMeta) (*models.IndustryFocus, error)
	Archive(ctx context.Context, id string, actor models.UserInfo, meta models.RequestMeta) error
}

// IndustryHandler manages the industry focus vocabulary.
type IndustryHandler struct {
	industries industryService
}

// NewIndustryHandler constructs an IndustryHandler.
func NewIndustryHandler(industries industryService) *IndustryHandler {
	return &IndustryHandler{industries: industries}
}

// List godoc
// @Summary List industry focuses
// @Tags Industries
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Filter by lifecycle state"
// @Success 200 {object} response.Envelope
// @Router /industries [get]
func (h *IndustryHandler) List(c *gin.Context) {
	active, err := boolQuery(c, "active")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.industries.List(c.Request.Context(), models.IndustryFilter{Active: active})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Create industry focus
// @Tags Industries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.IndustryRequest true "Industry focus"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /industries [post]
func (h *IndustryHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.IndustryRequest
	if !bindJSON(c, &req, "invalid industry payload") {
		return
	}
	item, err := h.industries.Create(c.Request.Context(), req, user, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Rename or reactivate industry focus
// @Tags Industries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Industry ID"
// @Param payload body service.IndustryRequest true "Industry focus"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /industries/{id} [put]
func (h *IndustryHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.IndustryRequest
	if !bindJSON(c, &req, "invalid industry payload") {
		return
	}
	item, err := h.industries.Update(c.Request.Context(), c.Param("id"), req, user, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Archive godoc
// @Summary Archive industry focus
// @Tags Industries
// @Security BearerAuth
// @Param id path string true "Industry ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /industries/{id} [delete]
func (h *IndustryHandler) Archive(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.industries.Archive(c.Request.Context(), c.Param("id"), user, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
