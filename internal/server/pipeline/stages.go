package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/mkorolev/gatekeeper/internal/common"
	"github.com/mkorolev/gatekeeper/internal/logging"
	"github.com/mkorolev/gatekeeper/internal/server/models"
	"github.com/mkorolev/gatekeeper/internal/server/ratelimit"
	"github.com/mkorolev/gatekeeper/internal/server/tokens"
)

// LoggingStage records request entry, exit, and latency. It never fails the
// request: downstream errors are logged and passed through unchanged.
type LoggingStage struct {
	log logging.Logger
}

func NewLoggingStage(log logging.Logger) *LoggingStage {
	return &LoggingStage{log: log.With("stage", "logging")}
}

func (s *LoggingStage) Name() string { return "logging" }

func (s *LoggingStage) Handle(ctx context.Context, rc *RequestContext, next Handler) error {
	s.log.Debug(ctx, "request started",
		"request_id", rc.RequestID,
		"client", rc.ClientKey)

	err := next(ctx, rc)
	latency := time.Since(rc.StartTime)
	rc.Metadata["latency"] = latency.String()

	if err != nil {
		var tagged *common.Error
		code := "UNKNOWN"
		if errors.As(err, &tagged) {
			code = tagged.Code
		}
		s.log.Info(ctx, "request failed",
			"request_id", rc.RequestID,
			"code", code,
			"latency", latency)
		return err
	}

	s.log.Info(ctx, "request completed",
		"request_id", rc.RequestID,
		"latency", latency)
	return nil
}

// RateLimitStage consults the limiter with a key derived from the caller:
// the authenticated user when present, the client key otherwise. A rejected
// check short-circuits with common.ErrRateLimited; limiter failures fail
// closed as common.ErrInternal.
type RateLimitStage struct {
	limiter ratelimit.Limiter
	log     logging.Logger
}

func NewRateLimitStage(limiter ratelimit.Limiter, log logging.Logger) *RateLimitStage {
	return &RateLimitStage{limiter: limiter, log: log.With("stage", "rate_limit")}
}

func (s *RateLimitStage) Name() string { return "rate_limit" }

func (s *RateLimitStage) Handle(ctx context.Context, rc *RequestContext, next Handler) error {
	key := "ip:" + rc.ClientKey
	if rc.User != nil {
		key = "user:" + rc.User.ID
	}

	res, err := s.limiter.Check(ctx, key)
	if err != nil {
		s.log.Error(ctx, "rate limit check failed",
			"request_id", rc.RequestID,
			"error", err)
		return common.ErrInternal
	}

	rc.Metadata["rate_limit_reset"] = res.ResetAt.Format(time.RFC3339)

	if !res.Allowed {
		s.log.Warn(ctx, "rate limit exceeded",
			"request_id", rc.RequestID,
			"key", key)
		return common.ErrRateLimited
	}

	return next(ctx, rc)
}

// AuthenticationStage verifies a present bearer token and attaches the
// resolved identity to the context. A missing token is not an error: the
// context stays unauthenticated and downstream requirements decide.
// Verification is stateless — claims alone carry subject and role.
type AuthenticationStage struct {
	tokens *tokens.Service
}

func NewAuthenticationStage(svc *tokens.Service) *AuthenticationStage {
	return &AuthenticationStage{tokens: svc}
}

func (s *AuthenticationStage) Name() string { return "authentication" }

func (s *AuthenticationStage) Handle(ctx context.Context, rc *RequestContext, next Handler) error {
	if rc.BearerToken == "" {
		return next(ctx, rc)
	}

	claims, err := s.tokens.VerifyAccessToken(rc.BearerToken)
	if err != nil {
		return err
	}

	rc.User = &models.User{
		ID:   claims.Subject,
		Role: models.ParseRole(claims.Role),
	}
	return next(ctx, rc)
}

// RoleCheckStage enforces a minimum role. No identity yields Unauthorized;
// an identity below the minimum yields Forbidden.
type RoleCheckStage struct {
	min models.Role
}

func NewRoleCheckStage(min models.Role) *RoleCheckStage {
	return &RoleCheckStage{min: min}
}

func (s *RoleCheckStage) Name() string { return "role_check" }

func (s *RoleCheckStage) Handle(ctx context.Context, rc *RequestContext, next Handler) error {
	if rc.User == nil {
		return common.ErrUnauthorized
	}
	if !rc.User.Role.AtLeast(s.min) {
		return common.ErrForbidden
	}
	return next(ctx, rc)
}
