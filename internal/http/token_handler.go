package http

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/room-access/internal/application"
	"github.com/example/room-access/internal/logging"
)

type tokenIssuer interface {
	Issue(principal application.Principal) (application.IssuedToken, error)
}

// TokenHandler exchanges a session for a signed access token.
type TokenHandler struct {
	issuer    tokenIssuer
	responder responder
	logger    *zap.Logger
}

func NewTokenHandler(issuer tokenIssuer, logger *zap.Logger) *TokenHandler {
	base := logging.Default(logger)
	return &TokenHandler{issuer: issuer, responder: newResponder(base), logger: base}
}

func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.issuer == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := handlerLogger(r.Context(), h.logger, "TokenHandler", "Create", zap.Int64("principal_id", principal.UserID))

	issued, err := h.issuer.Issue(principal)
	if err != nil {
		logger.Warn("access token not issued", zap.Error(err), errorKindField(application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info("access token issued")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, tokenResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresAt:   issued.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}
