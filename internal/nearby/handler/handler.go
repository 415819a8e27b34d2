package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dirmodels "bloodlink/internal/directory/models"
	"bloodlink/internal/nearby/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/httputil"
	request "bloodlink/pkg/platform/middleware/request"
	"bloodlink/pkg/requestcontext"
)

// Service defines the nearby lookups exposed over HTTP.
type Service interface {
	ResolveNearby(ctx context.Context, actor *dirmodels.Actor) (*models.Result, error)
	History(ctx context.Context, actor *dirmodels.Actor, limit int) ([]*models.DistanceRecord, error)
}

// ActorResolver loads the acting user's profiles.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID id.UserID, role id.Role) (*dirmodels.Actor, error)
}

type Handler struct {
	nearby Service
	actors ActorResolver
	logger *slog.Logger
}

func New(nearby Service, actors ActorResolver, logger *slog.Logger) *Handler {
	return &Handler{nearby: nearby, actors: actors, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/nearby", h.handleNearby)
	r.Get("/nearby/history", h.handleHistory)
}

type historyResponse struct {
	Records []*models.DistanceRecord `json:"records"`
}

func (h *Handler) handleNearby(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := h.actors.ResolveActor(ctx, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to resolve actor", err)
		return
	}
	result, err := h.nearby.ResolveNearby(ctx, actor)
	if err != nil {
		h.writeError(ctx, w, "failed to resolve nearby entities", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	actor, err := h.actors.ResolveActor(ctx, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to resolve actor", err)
		return
	}
	records, err := h.nearby.History(ctx, actor, limit)
	if err != nil {
		h.writeError(ctx, w, "failed to list nearby history", err)
		return
	}
	if records == nil {
		records = []*models.DistanceRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{Records: records})
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
