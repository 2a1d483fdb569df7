package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/mkorolev/gatekeeper/internal/common"
	"github.com/mkorolev/gatekeeper/internal/server/pipeline"
)

// apiError is the wire shape of every error response.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handlerFunc is an HTTP handler running inside a pipeline chain. The request
// context rc carries what the stages resolved (identity, metadata).
type handlerFunc func(ctx context.Context, rc *pipeline.RequestContext, w http.ResponseWriter, r *http.Request) error

// wrap adapts a pipeline chain plus a handlerFunc into a net/http handler.
// It builds the RequestContext from the request and maps the chain's error,
// if any, to an HTTP status exactly once.
func (s *Server) wrap(chain *pipeline.Chain, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := pipeline.NewRequestContext(clientIP(r), bearerToken(r))

		err := chain.Run(r.Context(), rc, func(ctx context.Context, rc *pipeline.RequestContext) error {
			return h(ctx, rc, w, r)
		})
		if err != nil {
			writeError(w, err)
		}
	}
}

// clientIP extracts the caller address, preferring proxy headers when present.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// bearerToken extracts the access token from the Authorization header.
// Returns "" when the header is absent or not a bearer scheme.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// statusFor maps a tagged error to its HTTP status. This is the single place
// where error codes become transport statuses.
func statusFor(err error) int {
	var tagged *common.Error
	if errors.As(err, &tagged) && tagged.Code == "BAD_REQUEST" {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidSignature),
		errors.Is(err, common.ErrExpiredToken),
		errors.Is(err, common.ErrTokenRevoked),
		errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := apiError{Code: "INTERNAL", Message: "internal error"}

	var tagged *common.Error
	if errors.As(err, &tagged) {
		body = apiError{Code: tagged.Code, Message: tagged.Message}
	}

	writeJSON(w, statusFor(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
