package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	dirmodels "bloodlink/internal/directory/models"
	"bloodlink/internal/inventory/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/httputil"
	request "bloodlink/pkg/platform/middleware/request"
	"bloodlink/pkg/requestcontext"
)

// Service defines the inventory operations exposed over HTTP.
type Service interface {
	ClassifyInventory(ctx context.Context, bankID id.BloodBankID, group id.BloodGroup) (models.Row, error)
	Summary(ctx context.Context, bankID id.BloodBankID) (models.Summary, error)
	Upsert(ctx context.Context, actor *dirmodels.Actor, bankID id.BloodBankID, group id.BloodGroup, update models.Update) (models.Row, error)
}

// ActorResolver loads the acting user's profiles.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID id.UserID, role id.Role) (*dirmodels.Actor, error)
}

type Handler struct {
	inventory Service
	actors    ActorResolver
	logger    *slog.Logger
}

func New(inventory Service, actors ActorResolver, logger *slog.Logger) *Handler {
	return &Handler{inventory: inventory, actors: actors, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/blood-banks/{bankID}/inventory", h.handleSummary)
	r.Get("/blood-banks/{bankID}/inventory/{group}", h.handleClassify)
	r.Put("/blood-banks/{bankID}/inventory/{group}", h.handleUpsert)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bankID, err := id.ParseBloodBankID(chi.URLParam(r, "bankID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.inventory.Summary(ctx, bankID)
	if err != nil {
		h.writeError(ctx, w, "failed to summarize inventory", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bankID, group, err := parseRowKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	row, err := h.inventory.ClassifyInventory(ctx, bankID, group)
	if err != nil {
		h.writeError(ctx, w, "failed to classify inventory", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, row)
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bankID, group, err := parseRowKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var update models.Update
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, err := h.actors.ResolveActor(ctx, requestcontext.UserID(ctx), requestcontext.Role(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to resolve actor", err)
		return
	}
	row, err := h.inventory.Upsert(ctx, actor, bankID, group, update)
	if err != nil {
		h.writeError(ctx, w, "failed to update inventory", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, row)
}

// parseRowKey reads the bank id and the blood group. The group segment is
// path-escaped since "+" is not URL safe.
func parseRowKey(r *http.Request) (id.BloodBankID, id.BloodGroup, error) {
	bankID, err := id.ParseBloodBankID(chi.URLParam(r, "bankID"))
	if err != nil {
		return id.BloodBankID{}, "", err
	}
	raw, err := url.PathUnescape(chi.URLParam(r, "group"))
	if err != nil {
		return id.BloodBankID{}, "", dErrors.New(dErrors.CodeBadRequest, "invalid blood group")
	}
	group, err := id.ParseBloodGroup(raw)
	if err != nil {
		return id.BloodBankID{}, "", err
	}
	return bankID, group, nil
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
