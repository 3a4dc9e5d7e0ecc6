package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/speaker-match-api/internal/middleware"
	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/service"
	"github.com/noah-isme/speaker-match-api/internal/workflow"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
	"github.com/noah-isme/speaker-match-api/pkg/response"
)

type requestService interface {
	Create(ctx context.Context, actor models.UserInfo, payload service.CreateRequestPayload, meta models.RequestMeta) (*models.Request, error)
	List(ctx context.Context, actor models.UserInfo, status *workflow.Status) ([]models.Request, error)
	Get(ctx context.Context, actor models.UserInfo, id string) (*models.Request, error)
	UpdateStatus(ctx context.Context, actor models.UserInfo, id string, payload service.StatusUpdatePayload, meta models.RequestMeta) (*models.Request, error)
	UpdateOwnStatus(ctx context.Context, actor models.UserInfo, id string, payload service.StatusUpdatePayload, meta models.RequestMeta) (*models.Request, error)
}

type requestExporter interface {
	ExportRequests(ctx context.Context, format string, status *workflow.Status) (*service.ExportResult, error)
}

// RequestHandler serves the speaker request lifecycle.
type RequestHandler struct {
	requests requestService
	exports  requestExporter
}

// NewRequestHandler constructs a RequestHandler.
func NewRequestHandler(requests requestService, exports requestExporter) *RequestHandler {
	return &RequestHandler{requests: requests, exports: exports}
}

// Create godoc
// @Summary Request a speaker
// @Description Teachers file a request. New requests start in Pending Review.
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateRequestPayload true "Request details"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var payload service.CreateRequestPayload
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}
	req, err := h.requests.Create(c.Request.Context(), user, payload, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, req)
}

// List godoc
// @Summary List requests
// @Description Admins see every request, teachers and speakers only their own.
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	status, err := statusQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	requests, err := h.requests.List(c.Request.Context(), user, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil, middleware.Meta(c, map[string]interface{}{"count": len(requests)}))
}

// Get godoc
// @Summary Get request
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	req, err := h.requests.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// UpdateStatus godoc
// @Summary Set request status
// @Description Administrative status change. Moves outside the transition table are recorded as overrides.
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param payload body service.StatusUpdatePayload true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/status [patch]
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	h.changeStatus(c, h.requests.UpdateStatus)
}

// UpdateOwnStatus godoc
// @Summary Respond to a request
// @Description Status change by the speaker the request is addressed to.
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param payload body service.StatusUpdatePayload true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/own-status [patch]
func (h *RequestHandler) UpdateOwnStatus(c *gin.Context) {
	h.changeStatus(c, h.requests.UpdateOwnStatus)
}

type statusChanger func(ctx context.Context, actor models.UserInfo, id string, payload service.StatusUpdatePayload, meta models.RequestMeta) (*models.Request, error)

func (h *RequestHandler) changeStatus(c *gin.Context, change statusChanger) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var payload service.StatusUpdatePayload
	if !bindJSON(c, &payload, "invalid status payload") {
		return
	}
	req, err := change(c.Request.Context(), user, c.Param("id"), payload, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Export godoc
// @Summary Export requests
// @Tags Requests
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param status query string false "Status filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /requests/export [get]
func (h *RequestHandler) Export(c *gin.Context) {
	status, err := statusQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.ExportRequests(c.Request.Context(), c.DefaultQuery("format", "csv"), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Data)
}

func statusQuery(c *gin.Context) (*workflow.Status, error) {
	raw := c.Query("status")
	if raw == "" {
		return nil, nil
	}
	status, err := workflow.ParseStatus(raw)
	if err != nil {
		return nil, appErrors.Validation(err, "unknown request status")
	}
	return &status, nil
}
