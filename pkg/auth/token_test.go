package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/bizops-backend/pkg/config"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "bizops",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()
	tenantID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID:   userID,
		TenantID: tenantID,
		Role:     enums.MemberRoleManager,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.TenantID != tenantID {
		t.Fatalf("expected tenant_id %s, got %s", tenantID, claims.TenantID)
	}
	if claims.Role != enums.MemberRoleManager {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be generated")
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 30*time.Minute {
		t.Fatalf("expected 30m lifetime, got %v", got)
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()
	valid := AccessTokenPayload{UserID: uuid.New(), TenantID: uuid.New(), Role: enums.MemberRoleStaff}

	cases := []struct {
		name    string
		cfg     config.JWTConfig
		payload AccessTokenPayload
	}{
		{name: "missing secret", cfg: config.JWTConfig{Issuer: "bizops", ExpirationMinutes: 5}, payload: valid},
		{name: "missing issuer", cfg: config.JWTConfig{Secret: "s", ExpirationMinutes: 5}, payload: valid},
		{name: "zero ttl", cfg: config.JWTConfig{Secret: "s", Issuer: "bizops"}, payload: valid},
		{name: "missing tenant", cfg: cfg, payload: AccessTokenPayload{UserID: uuid.New(), Role: enums.MemberRoleStaff}},
		{name: "missing user", cfg: cfg, payload: AccessTokenPayload{TenantID: uuid.New(), Role: enums.MemberRoleStaff}},
		{name: "bad role", cfg: cfg, payload: AccessTokenPayload{UserID: uuid.New(), TenantID: uuid.New(), Role: "owner"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := MintAccessToken(tc.cfg, now, tc.payload); err == nil {
				t.Fatalf("expected mint to fail")
			}
		})
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	cfg := testJWTConfig()
	payload := AccessTokenPayload{UserID: uuid.New(), TenantID: uuid.New(), Role: enums.MemberRoleStaff}

	expired, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	fresh, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	wrongSecret := cfg
	wrongSecret.Secret = "other"
	if _, err := ParseAccessToken(wrongSecret, fresh); err == nil {
		t.Fatalf("expected signature mismatch to be rejected")
	}

	wrongIssuer := cfg
	wrongIssuer.Issuer = "someone-else"
	if _, err := ParseAccessToken(wrongIssuer, fresh); err == nil {
		t.Fatalf("expected issuer mismatch to be rejected")
	}

	if _, err := ParseAccessToken(cfg, strings.TrimSuffix(fresh, fresh[len(fresh)-4:])); err == nil {
		t.Fatalf("expected truncated token to be rejected")
	}
}

func TestParseAccessTokenRejectsNoneAlg(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Role:     enums.MemberRoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build unsigned token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, unsigned); err == nil {
		t.Fatalf("expected alg=none to be rejected")
	}
}
