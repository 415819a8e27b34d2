package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	audit "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/httputil"
	request "bloodlink/pkg/platform/middleware/request"
	"bloodlink/pkg/requestcontext"
)

const maxActivityLimit = 500

// Lister reads recorded activity.
type Lister interface {
	ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]audit.Event, error)
}

// Handler serves the activity log.
type Handler struct {
	events Lister
	logger *slog.Logger
}

func NewHandler(events Lister, logger *slog.Logger) *Handler {
	return &Handler{events: events, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/activity", h.handleList)
}

type activityResponse struct {
	ID          string         `json:"id"`
	Timestamp   string         `json:"timestamp"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	IPAddress   string         `json:"ip_address,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// handleList returns the caller's own activity. Admins may pass user_id to
// read another user's log.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := requestcontext.UserID(ctx)

	if raw := r.URL.Query().Get("user_id"); raw != "" {
		if requestcontext.Role(ctx) != id.RoleAdmin {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "not permitted"))
			return
		}
		target, err := id.ParseUserID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		actorID = target
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxActivityLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	events, err := h.events.ListByActor(ctx, actorID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list activity",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list activity"))
		return
	}

	out := make([]activityResponse, 0, len(events))
	for _, e := range events {
		out = append(out, activityResponse{
			ID:          e.ID.String(),
			Timestamp:   e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			Action:      e.Action.String(),
			Description: e.Description,
			IPAddress:   e.ClientIP,
			UserAgent:   e.UserAgent,
			Metadata:    e.Metadata,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"activity": out})
}
