// Package principal verifies bearer tokens issued by the external identity
// provider and attaches the resulting principal to request contexts.
package principal

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/config"
	apperrors "github.com/MannLester/GovTrackerPH-sub000/internal/platform/errors"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/requestctx"
)

// authEnv holds raw env values before post-parse validation.
type authEnv struct {
	Issuer    string `env:"AUTH_ISSUER"`
	Audience  string `env:"AUTH_AUDIENCE"`
	PublicKey string `env:"AUTH_PUBLIC_KEY"`
}

// Config defines how bearer tokens are verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Enabled reports whether a verification key is configured.
func (c Config) Enabled() bool {
	return len(c.Key) == ed25519.PublicKeySize
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// LoadConfigFromEnv reads TRACKER_AUTH_* verification settings. With no
// public key configured the returned config is disabled and every presented
// token is rejected.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw authEnv
	if err := config.ParseEnvPrefixed(config.Prefix, &raw); err != nil {
		return Config{}, fmt.Errorf("parse auth env: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	cfg := Config{
		Issuer:   strings.TrimSpace(raw.Issuer),
		Audience: strings.TrimSpace(raw.Audience),
		Now:      now,
	}
	publicKey := strings.TrimSpace(raw.PublicKey)
	if publicKey == "" {
		return cfg, nil
	}
	if cfg.Issuer == "" {
		return Config{}, fmt.Errorf("%sAUTH_ISSUER is required", config.Prefix)
	}
	if cfg.Audience == "" {
		return Config{}, fmt.Errorf("%sAUTH_AUDIENCE is required", config.Prefix)
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode auth public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Config{}, fmt.Errorf("auth public key must be %d bytes", ed25519.PublicKeySize)
	}
	cfg.Key = ed25519.PublicKey(keyBytes)
	return cfg, nil
}

// Verify validates token and returns the principal it names.
func Verify(token string, cfg Config) (requestctx.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required")
	}
	if !cfg.Enabled() {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeUnauthenticated, "token verification is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return requestctx.Principal{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return requestctx.Principal{}, apperrors.WithMetadata(
			apperrors.CodeUnauthenticated,
			"token issuer mismatch",
			map[string]string{"Field": "iss"},
		)
	}
	if !slices.Contains(parsed.Audience, cfg.Audience) {
		return requestctx.Principal{}, apperrors.WithMetadata(
			apperrors.CodeUnauthenticated,
			"token audience mismatch",
			map[string]string{"Field": "aud"},
		)
	}
	if parsed.ExpiresAt == nil {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeUnauthenticated, "token exp is required")
	}
	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeUnauthenticated, "token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeUnauthenticated, "token not active yet")
	}

	subject := strings.TrimSpace(parsed.Subject)
	if subject == "" {
		return requestctx.Principal{}, apperrors.WithMetadata(
			apperrors.CodeUnauthenticated,
			"token subject is required",
			map[string]string{"Field": "sub"},
		)
	}
	role := strings.ToLower(strings.TrimSpace(parsed.Role))
	switch role {
	case "":
		role = requestctx.RoleUser
	case requestctx.RoleUser, requestctx.RoleAdmin:
	default:
		return requestctx.Principal{}, apperrors.WithMetadata(
			apperrors.CodeUnauthenticated,
			"token role is not recognized",
			map[string]string{"Field": "role"},
		)
	}
	return requestctx.Principal{ID: subject, Role: role}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token signature is invalid", err)
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token alg is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is invalid", err)
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
