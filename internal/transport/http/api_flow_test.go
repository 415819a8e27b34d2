package httptransport_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	activity "bloodlink/internal/audit"
	dirmodels "bloodlink/internal/directory/models"
	dirservice "bloodlink/internal/directory/service"
	dirstore "bloodlink/internal/directory/store"
	donorhandler "bloodlink/internal/donor/handler"
	donormodels "bloodlink/internal/donor/models"
	donorservice "bloodlink/internal/donor/service"
	donorstore "bloodlink/internal/donor/store"
	"bloodlink/internal/geo"
	invhandler "bloodlink/internal/inventory/handler"
	invservice "bloodlink/internal/inventory/service"
	invstore "bloodlink/internal/inventory/store"
	jwttoken "bloodlink/internal/jwt_token"
	nearbyhandler "bloodlink/internal/nearby/handler"
	nearbymodels "bloodlink/internal/nearby/models"
	nearbyservice "bloodlink/internal/nearby/service"
	nearbystore "bloodlink/internal/nearby/store"
	"bloodlink/internal/platform/metrics"
	reqhandler "bloodlink/internal/request/handler"
	reqmodels "bloodlink/internal/request/models"
	reqservice "bloodlink/internal/request/service"
	reqstore "bloodlink/internal/request/store"
	httptransport "bloodlink/internal/transport/http"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/audit/publisher"
	auditmemory "bloodlink/pkg/platform/audit/store/memory"
	txcontext "bloodlink/pkg/platform/tx"
	"bloodlink/pkg/testutil"
)

const (
	flowSigningKey = "flow-test-key"
	flowIssuer     = "bloodlink"
)

// flowFixture is a fully wired in-memory deployment with one user per role.
type flowFixture struct {
	router http.Handler
	tokens *jwttoken.JWTService

	receiverUser id.UserID
	donorUser    id.UserID
	hospitalUser id.UserID
	bankUser     id.UserID

	donorID    id.DonorID
	hospitalID id.HospitalID
	bankID     id.BloodBankID
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	f := &flowFixture{
		tokens:       jwttoken.NewJWTService(flowSigningKey, flowIssuer),
		receiverUser: id.UserID(uuid.New()),
		donorUser:    id.UserID(uuid.New()),
		hospitalUser: id.UserID(uuid.New()),
		bankUser:     id.UserID(uuid.New()),
		donorID:      id.DonorID(uuid.New()),
		hospitalID:   id.HospitalID(uuid.New()),
		bankID:       id.BloodBankID(uuid.New()),
	}

	directory := dirstore.NewInMemoryStore()
	donors := donorstore.NewInMemoryStore()
	inventory := invstore.NewInMemoryStore()
	requests := reqstore.NewInMemoryRequestStore()
	donations := reqstore.NewInMemoryDonationStore()
	distances := nearbystore.NewInMemoryStore()
	events := auditmemory.NewInMemoryStore()

	require.NoError(t, directory.SaveHospital(ctx, &dirmodels.Hospital{
		ID: f.hospitalID, UserID: f.hospitalUser, Name: "Dhaka Medical", Location: geo.At(23.7257, 90.3976),
	}))
	require.NoError(t, directory.SaveBloodBank(ctx, &dirmodels.BloodBank{
		ID: f.bankID, UserID: f.bankUser, Name: "Sandhani", Location: geo.At(23.7300, 90.3900),
	}))
	require.NoError(t, directory.SaveReceiver(ctx, &dirmodels.Receiver{
		ID: id.ReceiverID(uuid.New()), UserID: f.receiverUser, Name: "Rahim", Location: geo.At(23.7500, 90.3900),
	}))
	require.NoError(t, donors.Save(ctx, &donormodels.Profile{
		ID: f.donorID, UserID: f.donorUser, Name: "Karim", BloodGroup: id.BloodGroup("O-"),
		IsAvailable: true, Location: geo.At(23.8000, 90.4000),
	}))

	m := metrics.New()
	recorder := activity.NewRecorder(publisher.NewPublisher(events), activity.WithLogger(log))

	donorSvc := donorservice.New(donors, donorservice.WithLogger(log))
	invSvc := invservice.New(inventory, invservice.WithLogger(log), invservice.WithActivityRecorder(recorder))
	reqSvc := reqservice.New(requests, donations, donors, directory, invSvc,
		txcontext.NewMemoryRunner(),
		reqservice.WithLogger(log),
		reqservice.WithActivityRecorder(recorder),
	)
	nearbySvc := nearbyservice.New(donors, directory, distances, nearbyservice.WithLogger(log))
	actors := dirservice.NewResolver(directory, donors)

	f.router = httptransport.NewRouter(httptransport.Deps{
		Logger:  log,
		Metrics: m,
		Tokens:  jwttoken.NewJWTServiceAdapter(f.tokens),
		Modules: []httptransport.Registrar{
			reqhandler.New(reqSvc, actors, log),
			nearbyhandler.New(nearbySvc, actors, log),
			invhandler.New(invSvc, actors, log),
			donorhandler.New(donorSvc, log),
			activity.NewHandler(events, log),
		},
	})
	return f
}

// do sends req as user with a freshly minted token.
func (f *flowFixture) do(t *testing.T, req *http.Request, user id.UserID, role id.Role) *httptest.ResponseRecorder {
	t.Helper()
	token, err := f.tokens.GenerateAccessToken(user, role, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return testutil.DoRequest(f.router, req)
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	f := newFlowFixture(t)
	var created *reqmodels.BloodRequest

	testutil.Given(t, "a receiver requesting blood at a registered hospital", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/requests", map[string]any{
			"patient_name":     "Ayesha",
			"patient_age":      34,
			"blood_group":      "O-",
			"units_required":   2,
			"reason":           "surgery",
			"urgency":          "URGENT",
			"required_by_date": time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
			"hospital_id":      f.hospitalID.String(),
		})
		rr := f.do(t, req, f.receiverUser, id.RoleReceiver)

		testutil.AssertStatus(t, rr, http.StatusCreated)
		created = testutil.UnmarshalResponse[reqmodels.BloodRequest](t, rr)
		assert.Equal(t, reqmodels.StatusPending, created.Status)
		testutil.AssertETag(t, rr, 1)
	})
	require.NotNil(t, created)
	path := "/requests/" + created.ID.String()

	testutil.When(t, "the donor approves with the version they saw", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, path+"/transitions", map[string]any{"status": "APPROVED"})
		req.Header.Set("If-Match", `"1"`)
		rr := f.do(t, req, f.donorUser, id.RoleDonor)

		testutil.AssertStatus(t, rr, http.StatusOK)
		approved := testutil.UnmarshalResponse[reqmodels.BloodRequest](t, rr)
		assert.Equal(t, reqmodels.StatusApproved, approved.Status)
		require.NotNil(t, approved.ApprovedBy)
		assert.Equal(t, f.donorUser, *approved.ApprovedBy)
	})

	testutil.When(t, "the receiver replays a stale version", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, path+"/transitions", map[string]any{"status": "CANCELLED"})
		req.Header.Set("If-Match", `"1"`)
		rr := f.do(t, req, f.receiverUser, id.RoleReceiver)

		testutil.AssertError(t, rr, http.StatusConflict, dErrors.CodeConflict)
	})

	testutil.When(t, "the hospital named on the request tries to fulfil it", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, path+"/transitions", map[string]any{"status": "FULFILLED"})
		rr := f.do(t, req, f.hospitalUser, id.RoleHospital)

		envelope := testutil.AssertError(t, rr, http.StatusForbidden, dErrors.CodeForbidden)
		assert.Equal(t, "not permitted", envelope.ErrorDescription)

		read := f.do(t, testutil.NewRequest(t, http.MethodGet, path), f.hospitalUser, id.RoleHospital)
		testutil.AssertError(t, read, http.StatusForbidden, dErrors.CodeForbidden)
	})

	testutil.When(t, "the approving donor fulfils it", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, path+"/transitions", map[string]any{"status": "FULFILLED"})
		req.Header.Set("If-Match", `"2"`)
		rr := f.do(t, req, f.donorUser, id.RoleDonor)

		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertETag(t, rr, 3)
		fulfilled := testutil.UnmarshalResponse[reqmodels.BloodRequest](t, rr)
		assert.Equal(t, reqmodels.StatusFulfilled, fulfilled.Status)
	})

	testutil.Then(t, "the receiver sees a completed donation", func(t *testing.T) {
		rr := f.do(t, testutil.NewRequest(t, http.MethodGet, path), f.receiverUser, id.RoleReceiver)

		testutil.AssertStatusOK(t, rr)
		detail := testutil.UnmarshalResponse[reqmodels.Detail](t, rr)
		require.NotNil(t, detail.Request)
		assert.Equal(t, reqmodels.StatusFulfilled, detail.Request.Status)
		require.NotNil(t, detail.Donation)
		assert.Equal(t, reqmodels.DonationCompleted, detail.Donation.Status)
		assert.Equal(t, f.donorID, detail.Donation.DonorID)
	})

	testutil.Then(t, "the credited donor enters the cooldown window", func(t *testing.T) {
		rr := f.do(t, testutil.NewRequest(t, http.MethodGet, "/donors/"+f.donorID.String()+"/eligibility"), f.donorUser, id.RoleDonor)

		testutil.AssertStatusOK(t, rr)
		eligibility := testutil.UnmarshalResponse[donormodels.Eligibility](t, rr)
		assert.False(t, eligibility.CanDonate)
		assert.Equal(t, donormodels.EligibilityWindowDays, eligibility.DaysUntilEligible)
		assert.NotNil(t, eligibility.LastDonationDate)
	})

	testutil.Then(t, "the receiver's activity log records the request", func(t *testing.T) {
		rr := f.do(t, testutil.NewRequest(t, http.MethodGet, "/activity"), f.receiverUser, id.RoleReceiver)

		testutil.AssertStatusOK(t, rr)
		body := testutil.UnmarshalResponse[struct {
			Activity []struct {
				Action string `json:"action"`
			} `json:"activity"`
		}](t, rr)
		actions := make([]string, 0, len(body.Activity))
		for _, a := range body.Activity {
			actions = append(actions, a.Action)
		}
		assert.Contains(t, actions, "REQUEST_CREATED")
	})
}

func TestNearbyOverHTTP(t *testing.T) {
	f := newFlowFixture(t)

	testutil.When(t, "a receiver with a known location asks for nearby entities", func(t *testing.T) {
		rr := f.do(t, testutil.NewRequest(t, http.MethodGet, "/nearby"), f.receiverUser, id.RoleReceiver)

		testutil.AssertStatusOK(t, rr)
		result := testutil.UnmarshalResponse[nearbymodels.Result](t, rr)
		require.Len(t, result.Nearby, 3)
		for i := 1; i < len(result.Nearby); i++ {
			assert.LessOrEqual(t, result.Nearby[i-1].DistanceKm, result.Nearby[i].DistanceKm)
		}
		require.NotNil(t, result.NearestByType.Donor)
		require.NotNil(t, result.NearestByType.Hospital)
		require.NotNil(t, result.NearestByType.BloodBank)
		assert.Equal(t, "Sandhani", result.NearestByType.BloodBank.Name)
	})

	testutil.Then(t, "the lookup is kept in the receiver's history", func(t *testing.T) {
		rr := f.do(t, testutil.NewRequest(t, http.MethodGet, "/nearby/history"), f.receiverUser, id.RoleReceiver)

		testutil.AssertStatusOK(t, rr)
		body := testutil.UnmarshalResponse[struct {
			Records []nearbymodels.DistanceRecord `json:"records"`
		}](t, rr)
		require.Len(t, body.Records, 1)
		assert.Equal(t, f.receiverUser, body.Records[0].ReceiverID)
	})

	testutil.Then(t, "other roles cannot resolve nearby entities", func(t *testing.T) {
		rr := f.do(t, testutil.NewRequest(t, http.MethodGet, "/nearby"), f.donorUser, id.RoleDonor)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}

func TestProtectedRoutesRejectForeignTokens(t *testing.T) {
	f := newFlowFixture(t)
	foreign := jwttoken.NewJWTService("some-other-key", flowIssuer)
	token, err := foreign.GenerateAccessToken(f.receiverUser, id.RoleReceiver, time.Hour)
	require.NoError(t, err)

	req := testutil.NewRequest(t, http.MethodGet, "/requests")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(f.router, req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}
