// Package pipeline composes authentication and authorization concerns into
// an ordered list of stages wrapped around an arbitrary request handler.
// Each stage may pass through, enrich the request context, or short-circuit
// the request with one of the tagged errors from internal/common.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkorolev/gatekeeper/internal/server/models"
)

// RequestContext is the ephemeral per-request state threaded through the
// stages. It is created when a request arrives, enriched by stages (e.g. the
// authentication stage attaches User), and discarded at request completion.
// It is owned by a single goroutine and never persisted.
type RequestContext struct {
	RequestID string
	StartTime time.Time

	// ClientKey identifies the caller for rate limiting before any
	// authentication has happened (typically the remote IP).
	ClientKey string

	// BearerToken is the raw access token from the authorization header,
	// empty when the request carries none.
	BearerToken string

	// User is set by the authentication stage on successful verification.
	// nil means the request is unauthenticated.
	User *models.User

	// Metadata accumulates stage-written key/value notes (rate-limit reset,
	// latency). Single-goroutine access only.
	Metadata map[string]string
}

// NewRequestContext creates a context for one inbound request.
func NewRequestContext(clientKey, bearerToken string) *RequestContext {
	return &RequestContext{
		RequestID:   uuid.NewString(),
		StartTime:   time.Now(),
		ClientKey:   clientKey,
		BearerToken: bearerToken,
		Metadata:    make(map[string]string),
	}
}

// Authenticated reports whether an identity has been attached.
func (rc *RequestContext) Authenticated() bool {
	return rc.User != nil
}
