package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	dirmodels "bloodlink/internal/directory/models"
	"bloodlink/internal/request/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/httputil"
	request "bloodlink/pkg/platform/middleware/request"
	"bloodlink/pkg/requestcontext"
)

// Service defines the request lifecycle operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, actor *dirmodels.Actor, in models.CreateInput) (*models.BloodRequest, error)
	Get(ctx context.Context, actor *dirmodels.Actor, requestID id.RequestID) (*models.Detail, error)
	List(ctx context.Context, actor *dirmodels.Actor, status *models.Status, limit int) ([]*models.BloodRequest, error)
	Transition(ctx context.Context, requestID id.RequestID, actor *dirmodels.Actor, in models.TransitionInput) (*models.BloodRequest, error)
}

// ActorResolver loads the acting user's profiles.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID id.UserID, role id.Role) (*dirmodels.Actor, error)
}

type Handler struct {
	requests Service
	actors   ActorResolver
	logger   *slog.Logger
}

func New(requests Service, actors ActorResolver, logger *slog.Logger) *Handler {
	return &Handler{requests: requests, actors: actors, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/requests", h.handleCreate)
	r.Get("/requests", h.handleList)
	r.Get("/requests/{requestID}", h.handleGet)
	r.Post("/requests/{requestID}/transitions", h.handleTransition)
}

// transitionRequest is the body of a status change.
type transitionRequest struct {
	Status            string          `json:"status"`
	AssignedDonor     *id.DonorID     `json:"assigned_donor,omitempty"`
	AssignedBloodBank *id.BloodBankID `json:"assigned_blood_bank,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
}

type listResponse struct {
	Requests []*models.BloodRequest `json:"requests"`
	Count    int                    `json:"count"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in models.CreateInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, ok := h.resolveActor(ctx, w)
	if !ok {
		return
	}
	req, err := h.requests.Create(ctx, actor, in)
	if err != nil {
		h.writeError(ctx, w, "failed to create request", err)
		return
	}
	setETag(w, req.Version)
	httputil.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var status *models.Status
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		s := models.Status(raw)
		status = &s
	}
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	actor, ok := h.resolveActor(ctx, w)
	if !ok {
		return
	}
	requests, err := h.requests.List(ctx, actor, status, limit)
	if err != nil {
		h.writeError(ctx, w, "failed to list requests", err)
		return
	}
	if requests == nil {
		requests = []*models.BloodRequest{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Requests: requests, Count: len(requests)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, ok := h.resolveActor(ctx, w)
	if !ok {
		return
	}
	detail, err := h.requests.Get(ctx, actor, requestID)
	if err != nil {
		h.writeError(ctx, w, "failed to get request", err)
		return
	}
	setETag(w, detail.Request.Version)
	httputil.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var body transitionRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, err)
		return
	}
	target, err := models.ParseTarget(body.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	expected, err := parseIfMatch(r.Header.Get("If-Match"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor, ok := h.resolveActor(ctx, w)
	if !ok {
		return
	}
	req, err := h.requests.Transition(ctx, requestID, actor, models.TransitionInput{
		Target:            target,
		AssignedDonor:     body.AssignedDonor,
		AssignedBloodBank: body.AssignedBloodBank,
		RejectionReason:   strings.TrimSpace(body.RejectionReason),
		ExpectedVersion:   expected,
	})
	if err != nil {
		h.writeError(ctx, w, "failed to transition request", err)
		return
	}
	setETag(w, req.Version)
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) resolveActor(ctx context.Context, w http.ResponseWriter) (*dirmodels.Actor, bool) {
	actor, err := h.actors.ResolveActor(ctx, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to resolve actor", err)
		return nil, false
	}
	return actor, true
}

// parseIfMatch reads the request version a client last saw. An absent
// header means the client does not care.
func parseIfMatch(header string) (*int, error) {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return nil, nil
	}
	header = strings.TrimPrefix(header, "W/")
	version, err := strconv.Atoi(strings.Trim(header, `"`))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "If-Match must carry a request version")
	}
	return &version, nil
}

func setETag(w http.ResponseWriter, version int) {
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(version)))
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
