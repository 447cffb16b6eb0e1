package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/room-access/internal/application"
	"github.com/example/room-access/internal/logging"
)

type accessChecker interface {
	CheckAccess(ctx context.Context, publicUUID string, principal application.Principal) (application.AccessDecision, error)
}

// AccessHandler serves room access decisions.
type AccessHandler struct {
	service   accessChecker
	responder responder
	logger    *zap.Logger
}

func NewAccessHandler(service accessChecker, logger *zap.Logger) *AccessHandler {
	base := logging.Default(logger)
	return &AccessHandler{service: service, responder: newResponder(base), logger: base}
}

// Check answers GET /rooms/{uuid}/access. Denials are 200 responses.
func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomUUID := chi.URLParam(r, "uuid")
	principal, _ := PrincipalFromContext(r.Context())
	logger := handlerLogger(r.Context(), h.logger, "AccessHandler", "Check",
		zap.String("room_uuid", roomUUID),
		zap.Int64("principal_id", principal.UserID),
	)

	decision, err := h.service.CheckAccess(r.Context(), roomUUID, principal)
	if err != nil {
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			logger.Warn("malformed room identifier", errorKindField("bad_request"))
			h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{
				ErrorCode: "ROOM_UUID_INVALID",
				Message:   statusMessage(http.StatusBadRequest),
				Errors:    vErr.FieldErrors,
			})
			return
		}
		logger.Error("access check failed", zap.Error(err), errorKindField(application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, decision)
}
