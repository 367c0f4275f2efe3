package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/repository"
	"example.com/geomap/command-control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeService overrides only the methods a test exercises; calling anything
// else panics via the embedded nil interface.
type fakeService struct {
	service.Service

	getAsset       func(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	createAsset    func(ctx context.Context, asset *models.Asset) error
	listAssets     func(ctx context.Context, filter repository.AssetFilter) ([]*models.Asset, error)
	nearbyAssets   func(ctx context.Context, lat, lon, radiusKm float64, isFriendly *bool) ([]*models.Asset, error)
	applyAction    func(ctx context.Context, id uuid.UUID, action service.EngagementAction) (*models.Engagement, error)
	failCommand    func(ctx context.Context, id uuid.UUID, errorMessage string) (*models.Command, error)
	deleteAsset    func(ctx context.Context, id uuid.UUID) error
	dispatchComand func(ctx context.Context, command *models.Command) error
}

func (f *fakeService) GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	return f.getAsset(ctx, id)
}

func (f *fakeService) CreateAsset(ctx context.Context, asset *models.Asset) error {
	return f.createAsset(ctx, asset)
}

func (f *fakeService) ListAssets(ctx context.Context, filter repository.AssetFilter) ([]*models.Asset, error) {
	return f.listAssets(ctx, filter)
}

func (f *fakeService) NearbyAssets(ctx context.Context, lat, lon, radiusKm float64, isFriendly *bool) ([]*models.Asset, error) {
	return f.nearbyAssets(ctx, lat, lon, radiusKm, isFriendly)
}

func (f *fakeService) ApplyEngagementAction(ctx context.Context, id uuid.UUID, action service.EngagementAction) (*models.Engagement, error) {
	return f.applyAction(ctx, id, action)
}

func (f *fakeService) FailCommand(ctx context.Context, id uuid.UUID, errorMessage string) (*models.Command, error) {
	return f.failCommand(ctx, id, errorMessage)
}

func (f *fakeService) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	return f.deleteAsset(ctx, id)
}

func (f *fakeService) DispatchCommand(ctx context.Context, command *models.Command) error {
	return f.dispatchComand(ctx, command)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetAssetNotFound(t *testing.T) {
	svc := &fakeService{
		getAsset: func(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
			return nil, repository.ErrNotFound
		},
	}
	h := NewAssetHandler(svc, testLogger())

	r := gin.New()
	r.GET("/assets/:id", h.GetAsset)

	w := performRequest(r, http.MethodGet, "/assets/"+uuid.NewString(), nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "NOT_FOUND", resp.Code)
}

func TestGetAssetInvalidID(t *testing.T) {
	h := NewAssetHandler(&fakeService{}, testLogger())

	r := gin.New()
	r.GET("/assets/:id", h.GetAsset)

	w := performRequest(r, http.MethodGet, "/assets/not-a-uuid", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func TestCreateAssetValidation(t *testing.T) {
	h := NewAssetHandler(&fakeService{}, testLogger())

	r := gin.New()
	r.POST("/assets", h.CreateAsset)

	t.Run("unknown asset type", func(t *testing.T) {
		w := performRequest(r, http.MethodPost, "/assets", gin.H{
			"name":       "Drone-LA-001",
			"asset_type": "submarine",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		w := performRequest(r, http.MethodPost, "/assets", gin.H{
			"name":       "Drone-LA-001",
			"asset_type": "drone",
			"lat":        95.0,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreateAssetSuccess(t *testing.T) {
	svc := &fakeService{
		createAsset: func(ctx context.Context, asset *models.Asset) error {
			asset.ID = uuid.New()
			return nil
		},
	}
	h := NewAssetHandler(svc, testLogger())

	r := gin.New()
	r.POST("/assets", h.CreateAsset)

	w := performRequest(r, http.MethodPost, "/assets", gin.H{
		"name":       "Drone-LA-001",
		"asset_type": "drone",
		"lat":        34.05,
		"lon":        -118.25,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var asset models.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asset))
	require.NotEqual(t, uuid.Nil, asset.ID)
	require.True(t, asset.IsFriendly)
	require.True(t, asset.IsActive)
}

func TestListAssetsEnvelope(t *testing.T) {
	svc := &fakeService{
		listAssets: func(ctx context.Context, filter repository.AssetFilter) ([]*models.Asset, error) {
			return []*models.Asset{
				{ID: uuid.New(), Name: "a"},
				{ID: uuid.New(), Name: "b"},
			}, nil
		},
	}
	h := NewAssetHandler(svc, testLogger())

	r := gin.New()
	r.GET("/assets", h.ListAssets)

	w := performRequest(r, http.MethodGet, "/assets?limit=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Items []models.Asset `json:"items"`
		Total int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	require.Equal(t, 2, resp.Total)
}

func TestNearbyRequiresCoordinates(t *testing.T) {
	h := NewAssetHandler(&fakeService{}, testLogger())

	r := gin.New()
	r.GET("/assets/nearby", h.NearbyAssets)

	w := performRequest(r, http.MethodGet, "/assets/nearby?lon=-118.25&radius_km=5", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r, http.MethodGet, "/assets/nearby?lat=34.05&radius_km=5", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNearbyDefaultsRadius(t *testing.T) {
	var gotRadius float64
	svc := &fakeService{
		nearbyAssets: func(ctx context.Context, lat, lon, radiusKm float64, isFriendly *bool) ([]*models.Asset, error) {
			gotRadius = radiusKm
			return nil, nil
		},
	}
	h := NewAssetHandler(svc, testLogger())

	r := gin.New()
	r.GET("/assets/nearby", h.NearbyAssets)

	w := performRequest(r, http.MethodGet, "/assets/nearby?lat=34.05&lon=-118.25", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 100.0, gotRadius)
}

func TestNearbyRejectsNegativeRadius(t *testing.T) {
	h := NewAssetHandler(&fakeService{}, testLogger())

	r := gin.New()
	r.GET("/assets/nearby", h.NearbyAssets)

	w := performRequest(r, http.MethodGet, "/assets/nearby?lat=34.05&lon=-118.25&radius_km=-1", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEngagementActionInvalidTransition(t *testing.T) {
	svc := &fakeService{
		applyAction: func(ctx context.Context, id uuid.UUID, action service.EngagementAction) (*models.Engagement, error) {
			return nil, &service.InvalidTransitionError{Current: "completed", Action: string(action)}
		},
	}
	h := NewEngagementHandler(svc, testLogger())

	r := gin.New()
	r.POST("/engagements/:id/confirm", h.Action(service.ActionConfirm))

	w := performRequest(r, http.MethodPost, "/engagements/"+uuid.NewString()+"/confirm", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "INVALID_TRANSITION", resp.Code)
	require.Contains(t, resp.Message, "completed")
}

func TestEngagementActionSuccess(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{
		applyAction: func(ctx context.Context, gotID uuid.UUID, action service.EngagementAction) (*models.Engagement, error) {
			return &models.Engagement{ID: gotID, Status: models.EngagementStatusActive}, nil
		},
	}
	h := NewEngagementHandler(svc, testLogger())

	r := gin.New()
	r.POST("/engagements/:id/confirm", h.Action(service.ActionConfirm))

	w := performRequest(r, http.MethodPost, "/engagements/"+id.String()+"/confirm", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var engagement models.Engagement
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &engagement))
	require.Equal(t, models.EngagementStatusActive, engagement.Status)
}

func TestFailCommandRequiresReason(t *testing.T) {
	h := NewCommandHandler(&fakeService{}, testLogger())

	r := gin.New()
	r.POST("/commands/:id/fail", h.FailCommand)

	w := performRequest(r, http.MethodPost, "/commands/"+uuid.NewString()+"/fail", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchCommandRejectsUnknownType(t *testing.T) {
	h := NewCommandHandler(&fakeService{}, testLogger())

	r := gin.New()
	r.POST("/commands", h.DispatchCommand)

	w := performRequest(r, http.MethodPost, "/commands", gin.H{
		"command_type": "self-destruct",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAssetResponds(t *testing.T) {
	var deleted uuid.UUID
	svc := &fakeService{
		deleteAsset: func(ctx context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}
	h := NewAssetHandler(svc, testLogger())

	r := gin.New()
	r.DELETE("/assets/:id", h.DeleteAsset)

	id := uuid.New()
	w := performRequest(r, http.MethodDelete, "/assets/"+id.String(), nil)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, id, deleted)
}
