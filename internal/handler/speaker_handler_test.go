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

type speakerServiceMock struct {
	listCalls int
	searches  []service.SearchSpeakersRequest
	upserted  service.UpsertSpeakerRequest
	upsertFor string
}

func (m *speakerServiceMock) List(ctx context.Context) ([]models.Speaker, error) {
	m.listCalls++
	return []models.Speaker{{ID: "s1"}, {ID: "s2"}}, nil
}

func (m *speakerServiceMock) Search(ctx context.Context, req service.SearchSpeakersRequest) ([]models.Speaker, error) {
	m.searches = append(m.searches, req)
	return []models.Speaker{{ID: "s1"}}, nil
}

func (m *speakerServiceMock) Get(ctx context.Context, id string) (*models.Speaker, error) {
	if id != "s1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "speaker not found")
	}
	return &models.Speaker{ID: id}, nil
}

func (m *speakerServiceMock) GetByUser(ctx context.Context, userID string) (*models.Speaker, error) {
	return &models.Speaker{ID: "s1", UserID: userID}, nil
}

func (m *speakerServiceMock) UpsertOwn(ctx context.Context, userID string, req service.UpsertSpeakerRequest) (*models.Speaker, error) {
	m.upserted = req
	m.upsertFor = userID
	return &models.Speaker{ID: "s1", UserID: userID, Organization: req.Organization}, nil
}

func speakerRouter(svc *speakerServiceMock) *gin.Engine {
	h := NewSpeakerHandler(svc)
	r := gin.New()
	r.Use(asUser(models.UserInfo{ID: "u1", Role: models.RoleSpeaker}))
	r.GET("/speakers", h.List)
	r.POST("/speakers/search", h.Search)
	r.GET("/speakers/me", h.Me)
	r.PUT("/speakers/me", h.UpsertMe)
	r.GET("/speakers/:id", h.Get)
	return r
}

func TestSpeakerHandlerListWithoutFilters(t *testing.T) {
	svc := &speakerServiceMock{}
	w := doJSON(t, speakerRouter(svc), http.MethodGet, "/speakers", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.listCalls)
	assert.Empty(t, svc.searches)
	assert.Equal(t, float64(2), decode(t, w).Meta["count"])
}

func TestSpeakerHandlerListParsesFilters(t *testing.T) {
	svc := &speakerServiceMock{}
	path := "/speakers?q=ada&industry=Technology,Healthcare&grades=High%20School&grades=Elementary" +
		"&city=Buffalo&radius=25.5&inperson=true&languages=English&lat=42.88&lng=-78.87"
	w := doJSON(t, speakerRouter(svc), http.MethodGet, path, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, svc.listCalls)
	require.Len(t, svc.searches, 1)
	req := svc.searches[0]
	assert.Equal(t, "ada", req.Query)
	assert.Equal(t, []string{"Technology", "Healthcare"}, req.Filters.Industry)
	assert.Equal(t, []string{"High School", "Elementary"}, req.Filters.Grades)
	assert.Equal(t, "Buffalo", req.Filters.City)
	assert.Equal(t, 25.5, req.Filters.Radius)
	assert.True(t, req.Filters.Formats.InPerson)
	assert.False(t, req.Filters.Formats.Virtual)
	require.NotNil(t, req.Filters.UserCoordinates)
	assert.Equal(t, -78.87, req.Filters.UserCoordinates.Lng)
}

func TestSpeakerHandlerListRejectsBadNumbers(t *testing.T) {
	svc := &speakerServiceMock{}
	r := speakerRouter(svc)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/speakers?radius=far", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/speakers?lat=1&lng=east", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/speakers?virtual=maybe", nil).Code)
	assert.Empty(t, svc.searches)
}

func TestSpeakerHandlerListRequiresBothCoordinates(t *testing.T) {
	svc := &speakerServiceMock{}
	r := speakerRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/speakers?radius=25&lat=42.88", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/speakers?lng=-78.87", nil).Code)
	assert.Empty(t, svc.searches)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/speakers?lat=0&lng=0", nil).Code)
	require.Len(t, svc.searches, 1)
	assert.NotNil(t, svc.searches[0].Filters.UserCoordinates)
}

func TestSpeakerHandlerSearchBody(t *testing.T) {
	svc := &speakerServiceMock{}
	w := doJSON(t, speakerRouter(svc), http.MethodPost, "/speakers/search", map[string]interface{}{
		"query": "hopper",
		"filters": map[string]interface{}{
			"languages":       []string{"Spanish"},
			"formats":         map[string]bool{"virtual": true},
			"radius":          10,
			"userCoordinates": map[string]float64{"lat": 40.7, "lng": -74.0},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.searches, 1)
	assert.Equal(t, "hopper", svc.searches[0].Query)
	assert.True(t, svc.searches[0].Filters.Formats.Virtual)
	assert.Equal(t, []string{"Spanish"}, svc.searches[0].Filters.Languages)
	require.NotNil(t, svc.searches[0].Filters.UserCoordinates)
}

func TestSpeakerHandlerGetAndUpsert(t *testing.T) {
	svc := &speakerServiceMock{}
	r := speakerRouter(svc)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/speakers/s1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/speakers/zz", nil).Code)

	w := doJSON(t, r, http.MethodGet, "/speakers/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"user_id":"u1"`)

	w = doJSON(t, r, http.MethodPut, "/speakers/me", map[string]interface{}{"organization": "Navy", "virtual": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", svc.upsertFor)
	assert.Equal(t, "Navy", svc.upserted.Organization)
	assert.True(t, svc.upserted.Virtual)
}
