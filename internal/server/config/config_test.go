package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenValidityDuration)
	assert.NotEqual(t, cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Positive(t, cfg.BcryptCost)
	assert.Positive(t, cfg.HashWorkers)
}

func TestApplyJson_OverridesOnlySetFields(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	raw := []byte(`{
		"endpoint_addr_http": ":9090",
		"access_token_validity_duration": "5m",
		"rate_limit_max": 5,
		"rate_limit_window": "60s"
	}`)

	jc := &JsonConfig{}
	require.NoError(t, json.Unmarshal(raw, jc))
	applyJson(cfg, jc)

	assert.Equal(t, ":9090", cfg.EndpointAddrHTTP)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)

	// untouched fields keep defaults
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "accessSecret", cfg.AccessTokenSecret)
}
