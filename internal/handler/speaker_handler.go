package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/speaker-match-api/internal/middleware"
	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/service"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
	"github.com/noah-isme/speaker-match-api/pkg/geo"
	"github.com/noah-isme/speaker-match-api/pkg/response"
)

type speakerService interface {
	List(ctx context.Context) ([]models.Speaker, error)
	Search(ctx context.Context, req service.SearchSpeakersRequest) ([]models.Speaker, error)
	Get(ctx context.Context, id string) (*models.Speaker, error)
	GetByUser(ctx context.Context, userID string) (*models.Speaker, error)
	UpsertOwn(ctx context.Context, userID string, req service.UpsertSpeakerRequest) (*models.Speaker, error)
}

var speakerFilterKeys = []string{
	"q", "industry", "grades", "city", "state", "country", "radius",
	"inperson", "virtual", "languages", "lat", "lng",
}

// SpeakerHandler serves the speaker directory and search.
type SpeakerHandler struct {
	speakers speakerService
}

// NewSpeakerHandler constructs a SpeakerHandler.
func NewSpeakerHandler(speakers speakerService) *SpeakerHandler {
	return &SpeakerHandler{speakers: speakers}
}

// List godoc
// @Summary List or filter speakers
// @Description Without filter parameters the full directory is returned. Any parameter switches to search.
// @Tags Speakers
// @Produce json
// @Security BearerAuth
// @Param q query string false "Free-text query"
// @Param industry query []string false "Industry names" collectionFormat(csv)
// @Param grades query []string false "Grade levels" collectionFormat(csv)
// @Param city query string false "City"
// @Param state query string false "State"
// @Param country query string false "Country"
// @Param radius query number false "Radius in miles"
// @Param inperson query bool false "Offers in-person sessions"
// @Param virtual query bool false "Offers virtual sessions"
// @Param languages query []string false "Languages" collectionFormat(csv)
// @Param lat query number false "Caller latitude"
// @Param lng query number false "Caller longitude"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /speakers [get]
func (h *SpeakerHandler) List(c *gin.Context) {
	if !hasAnyQuery(c, speakerFilterKeys) {
		speakers, err := h.speakers.List(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, speakers, nil, middleware.Meta(c, map[string]interface{}{"count": len(speakers)}))
		return
	}

	req, err := searchFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.search(c, req)
}

// Search godoc
// @Summary Search speakers
// @Description Applies the query and the whole filter state in one evaluation.
// @Tags Speakers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SearchSpeakersRequest true "Search criteria"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /speakers/search [post]
func (h *SpeakerHandler) Search(c *gin.Context) {
	var req service.SearchSpeakersRequest
	if !bindJSON(c, &req, "invalid search payload") {
		return
	}
	h.search(c, req)
}

func (h *SpeakerHandler) search(c *gin.Context, req service.SearchSpeakersRequest) {
	speakers, err := h.speakers.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, speakers, nil, middleware.Meta(c, map[string]interface{}{"count": len(speakers)}))
}

// Get godoc
// @Summary Get speaker
// @Tags Speakers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Speaker ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /speakers/{id} [get]
func (h *SpeakerHandler) Get(c *gin.Context) {
	speaker, err := h.speakers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, speaker, nil)
}

// Me godoc
// @Summary Get own speaker profile
// @Tags Speakers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /speakers/me [get]
func (h *SpeakerHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	speaker, err := h.speakers.GetByUser(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, speaker, nil)
}

// UpsertMe godoc
// @Summary Create or replace own speaker profile
// @Tags Speakers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpsertSpeakerRequest true "Speaker profile"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /speakers/me [put]
func (h *SpeakerHandler) UpsertMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.UpsertSpeakerRequest
	if !bindJSON(c, &req, "invalid speaker payload") {
		return
	}
	speaker, err := h.speakers.UpsertOwn(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, speaker, nil)
}

func hasAnyQuery(c *gin.Context, keys []string) bool {
	query := c.Request.URL.Query()
	for _, key := range keys {
		if _, ok := query[key]; ok {
			return true
		}
	}
	return false
}

func searchFromQuery(c *gin.Context) (service.SearchSpeakersRequest, error) {
	filters := models.FilterState{
		Industry:  listQuery(c, "industry"),
		Grades:    listQuery(c, "grades"),
		City:      strings.TrimSpace(c.Query("city")),
		State:     strings.TrimSpace(c.Query("state")),
		Country:   strings.TrimSpace(c.Query("country")),
		Languages: listQuery(c, "languages"),
	}

	var err error
	if filters.Radius, err = floatQuery(c, "radius"); err != nil {
		return service.SearchSpeakersRequest{}, err
	}
	inPerson, err := boolQuery(c, "inperson")
	if err != nil {
		return service.SearchSpeakersRequest{}, err
	}
	virtual, err := boolQuery(c, "virtual")
	if err != nil {
		return service.SearchSpeakersRequest{}, err
	}
	filters.Formats = models.Formats{InPerson: inPerson != nil && *inPerson, Virtual: virtual != nil && *virtual}

	hasLat, hasLng := strings.TrimSpace(c.Query("lat")) != "", strings.TrimSpace(c.Query("lng")) != ""
	if hasLat != hasLng {
		return service.SearchSpeakersRequest{}, appErrors.Clone(appErrors.ErrValidation, "lat and lng must be given together")
	}
	if hasLat {
		lat, err := floatQuery(c, "lat")
		if err != nil {
			return service.SearchSpeakersRequest{}, err
		}
		lng, err := floatQuery(c, "lng")
		if err != nil {
			return service.SearchSpeakersRequest{}, err
		}
		filters.UserCoordinates = &geo.Coordinates{Lat: lat, Lng: lng}
	}

	return service.SearchSpeakersRequest{Query: c.Query("q"), Filters: filters}, nil
}

func floatQuery(c *gin.Context, key string) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, appErrors.Validation(err, "invalid "+key+" parameter")
	}
	return val, nil
}
