package config

import (
	"flag"
	"os"
	"time"

	"github.com/mkorolev/gatekeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-rd string  Redis address (optional)
//	-s string   access-token HMAC secret
//	-rs string  refresh-token HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-bc int     bcrypt cost factor
//	-hw int     hashing worker-pool size
//	-lm int     rate-limit threshold per window
//	-lw int     rate-limit window, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-rd", "-s", "-rs", "-t", "-r", "-bc", "-hw", "-lm", "-lw"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "rd", config.RedisAddr, "redis address (empty = in-process rate limiter)")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "rs", config.RefreshTokenSecret, "refresh token secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.IntVar(&config.BcryptCost, "bc", config.BcryptCost, "bcrypt cost factor")
	fs.IntVar(&config.HashWorkers, "hw", config.HashWorkers, "hashing worker pool size")
	fs.IntVar(&config.RateLimitMax, "lm", config.RateLimitMax, "rate limit threshold per window")

	rateLimitWindow := fs.Int("lw", int(config.RateLimitWindow.Seconds()), "rate limit window (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	config.RateLimitWindow = time.Duration(*rateLimitWindow) * time.Second
}
