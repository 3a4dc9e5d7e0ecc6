package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/service"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
)

type industryServiceMock struct {
	filter   models.IndustryFilter
	archived []string
}

func (m *industryServiceMock) List(ctx context.Context, filter models.IndustryFilter) ([]models.IndustryFocus, error) {
	m.filter = filter
	return []models.IndustryFocus{{ID: "i1", Name: "Technology", Active: true}}, nil
}

func (m *industryServiceMock) Create(ctx context.Context, req service.IndustryRequest, actor models.UserInfo, meta models.RequestMeta) (*models.IndustryFocus, error) {
	if req.Name == "Technology" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "industry already exists")
	}
	return &models.IndustryFocus{ID: "i2", Name: req.Name, Active: true}, nil
}

func (m *industryServiceMock) Update(ctx context.Context, id string, req service.IndustryRequest, actor models.UserInfo, meta models.RequestMeta) (*models.IndustryFocus, error) {
	return &models.IndustryFocus{ID: id, Name: req.Name, Active: true}, nil
}

func (m *industryServiceMock) Archive(ctx context.Context, id string, actor models.UserInfo, meta models.RequestMeta) error {
	if id == "missing" {
		return appErrors.Clone(appErrors.ErrNotFound, "industry not found")
	}
	m.archived = append(m.archived, id)
	return nil
}

func industryRouter(svc *industryServiceMock) *gin.Engine {
	h := NewIndustryHandler(svc)
	r := gin.New()
	r.Use(asUser(models.UserInfo{ID: "a1", Role: models.RoleAdmin}))
	r.GET("/industries", h.List)
	r.POST("/industries", h.Create)
	r.PUT("/industries/:id", h.Update)
	r.DELETE("/industries/:id", h.Archive)
	return r
}

func TestIndustryHandlerList(t *testing.T) {
	svc := &industryServiceMock{}
	r := industryRouter(svc)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/industries?active=true", nil).Code)
	require.NotNil(t, svc.filter.Active)
	assert.True(t, *svc.filter.Active)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/industries?active=sometimes", nil).Code)
}

func TestIndustryHandlerMutations(t *testing.T) {
	svc := &industryServiceMock{}
	r := industryRouter(svc)

	assert.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/industries", map[string]string{"name": "Energy"}).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, r, http.MethodPost, "/industries", map[string]string{"name": "Technology"}).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPut, "/industries/i1", map[string]string{"name": "Tech"}).Code)

	assert.Equal(t, http.StatusNoContent, doJSON(t, r, http.MethodDelete, "/industries/i1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodDelete, "/industries/missing", nil).Code)
	assert.Equal(t, []string{"i1"}, svc.archived)
}
