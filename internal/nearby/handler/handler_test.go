package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dirmodels "bloodlink/internal/directory/models"
	"bloodlink/internal/geo"
	"bloodlink/internal/nearby/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

type stubService struct {
	result   *models.Result
	records  []*models.DistanceRecord
	err      error
	gotActor *dirmodels.Actor
	gotLimit int
}

func (s *stubService) ResolveNearby(_ context.Context, actor *dirmodels.Actor) (*models.Result, error) {
	s.gotActor = actor
	return s.result, s.err
}

func (s *stubService) History(_ context.Context, actor *dirmodels.Actor, limit int) ([]*models.DistanceRecord, error) {
	s.gotActor = actor
	s.gotLimit = limit
	return s.records, s.err
}

type stubResolver struct{}

func (stubResolver) ResolveActor(_ context.Context, userID id.UserID, role id.Role) (*dirmodels.Actor, error) {
	return &dirmodels.Actor{UserID: userID, Role: role}, nil
}

func serve(svc Service, r *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	New(svc, stubResolver{}, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)
	r = r.WithContext(requestcontext.WithActor(r.Context(), id.UserID(uuid.New()), id.RoleReceiver))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestNearbyReturnsRankedList(t *testing.T) {
	donor := models.Ranked{Type: models.EntityDonor, ID: uuid.New(), Name: "Rafi", BloodGroup: id.BloodGroupONeg, DistanceKm: 1.2}
	bank := models.Ranked{Type: models.EntityBloodBank, ID: uuid.New(), Name: "Central", DistanceKm: 3.4}
	svc := &stubService{result: &models.Result{
		Receiver:      "Nadia",
		Location:      geo.At(23.81, 90.41),
		Nearby:        []models.Ranked{donor, bank},
		NearestByType: models.Nearest{Donor: &donor, BloodBank: &bank},
	}}

	w := serve(svc, httptest.NewRequest(http.MethodGet, "/nearby", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.RoleReceiver, svc.gotActor.Role)
	var body struct {
		Receiver string `json:"receiver"`
		Nearby   []struct {
			Type       string  `json:"type"`
			DistanceKm float64 `json:"distance_km"`
		} `json:"nearby"`
		NearestByType map[string]any `json:"nearest_by_type"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Nadia", body.Receiver)
	require.Len(t, body.Nearby, 2)
	assert.Equal(t, "Donor", body.Nearby[0].Type)
	assert.Equal(t, "Blood Bank", body.Nearby[1].Type)
	assert.Nil(t, body.NearestByType["hospital"])
}

func TestNearbyForbidden(t *testing.T) {
	svc := &stubService{err: dErrors.New(dErrors.CodeForbidden, "only receivers can look up nearby entities")}
	w := serve(svc, httptest.NewRequest(http.MethodGet, "/nearby", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHistory(t *testing.T) {
	svc := &stubService{}
	w := serve(svc, httptest.NewRequest(http.MethodGet, "/nearby/history?limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, svc.gotLimit)
	assert.JSONEq(t, `{"records":[]}`, w.Body.String())

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/nearby/history?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
