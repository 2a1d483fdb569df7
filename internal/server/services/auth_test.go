package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkorolev/gatekeeper/internal/common"
	"github.com/mkorolev/gatekeeper/internal/logging"
	"github.com/mkorolev/gatekeeper/internal/server/config"
	"github.com/mkorolev/gatekeeper/internal/server/password"
	"github.com/mkorolev/gatekeeper/internal/server/repositories/refreshrecords"
	"github.com/mkorolev/gatekeeper/internal/server/repositories/users"
	"github.com/mkorolev/gatekeeper/internal/server/tokens"
)

func newAuthService(t *testing.T) (*AuthService, *tokens.Service) {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	hasher, err := password.NewBcryptHasher(4, 2) // low cost keeps tests fast
	require.NoError(t, err)

	tok, err := tokens.NewService(refreshrecords.NewMemoryRepository(), cfg)
	require.NoError(t, err)

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewAuthService(users.NewMemoryRepository(), hasher, tok, log), tok
}

func TestRegisterThenLogin(t *testing.T) {
	svc, tok := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	pair, err := svc.Login(ctx, "Alice@Example.com", "correct horse")
	require.NoError(t, err)

	claims, err := tok.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "user", claims.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob@example.com", "pw-one")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "  BOB@example.com ", "pw-two")
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol@example.com", "right-password")
	require.NoError(t, err)

	_, errWrong := svc.Login(ctx, "carol@example.com", "wrong-password")
	assert.ErrorIs(t, errWrong, common.ErrInvalidCredentials)

	_, errUnknown := svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)

	// identical external signal for both cases
	assert.Equal(t, errWrong, errUnknown)
}

func TestLogin_TimingEnvelope(t *testing.T) {
	if testing.Short() {
		t.Skip("timing measurement")
	}

	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dave@example.com", "right-password")
	require.NoError(t, err)

	measure := func(email string) time.Duration {
		const rounds = 5
		var total time.Duration
		for i := 0; i < rounds; i++ {
			start := time.Now()
			_, _ = svc.Login(ctx, email, "wrong-password")
			total += time.Since(start)
		}
		return total / rounds
	}

	known := measure("dave@example.com")
	unknown := measure("nobody@example.com")

	// both paths perform exactly one bcrypt verification; allow generous
	// scheduler noise but catch an early-exit regression
	ratio := float64(known) / float64(unknown)
	if ratio < 0.2 || ratio > 5 {
		t.Fatalf("timing envelope too wide: known=%v unknown=%v", known, unknown)
	}
}

func TestRefreshAndLogoutFlow(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "erin@example.com", "pw")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "erin@example.com", "pw")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	// the original token was rotated; replay is a revocation signal
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrTokenRevoked)

	// logout kills the successor
	require.NoError(t, svc.Logout(ctx, next.RefreshToken))
	_, err = svc.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, common.ErrTokenRevoked)

	// logout is idempotent
	require.NoError(t, svc.Logout(ctx, next.RefreshToken))
}

func TestLogout_ForgedTokenRejected(t *testing.T) {
	svc, _ := newAuthService(t)

	err := svc.Logout(context.Background(), "forged.refresh.token")
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestChangePassword_RevokesSessions(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "frank@example.com", "old-pw")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "frank@example.com", "old-pw")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "new-pw"))

	// old refresh token no longer works
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrTokenRevoked)

	// old password is gone, new one works
	_, err = svc.Login(ctx, "frank@example.com", "old-pw")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "frank@example.com", "new-pw")
	require.NoError(t, err)
}

func TestChangePassword_UnknownUser(t *testing.T) {
	svc, _ := newAuthService(t)

	err := svc.ChangePassword(context.Background(), "missing-id", "pw")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
