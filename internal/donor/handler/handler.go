package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodlink/internal/donor/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/httputil"
	request "bloodlink/pkg/platform/middleware/request"
)

// Service defines the donor operations exposed over HTTP.
type Service interface {
	Eligibility(ctx context.Context, donorID id.DonorID) (models.Eligibility, error)
}

// Handler serves donor endpoints.
type Handler struct {
	donors Service
	logger *slog.Logger
}

func New(donors Service, logger *slog.Logger) *Handler {
	return &Handler{donors: donors, logger: logger}
}

// Register mounts donor routes on r. Authentication is applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Get("/donors/{donorID}/eligibility", h.handleEligibility)
}

func (h *Handler) handleEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donorID, err := id.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.donors.Eligibility(ctx, donorID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to evaluate donor eligibility",
				"request_id", request.GetRequestID(ctx),
				"donor_id", donorID.String(),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
