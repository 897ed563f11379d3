package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/angelmondragon/bizops-backend/pkg/auth"
	"github.com/angelmondragon/bizops-backend/pkg/config"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
)

// devtoken prints an access token for local testing. Identity is issued
// elsewhere in production; this only signs with the configured secret.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "devtoken", Output: os.Stderr})

	_ = godotenv.Load()

	tenant := flag.String("tenant", "", "tenant UUID (generated when empty)")
	user := flag.String("user", "", "user UUID (generated when empty)")
	role := flag.String("role", string(enums.MemberRoleManager), "manager|staff")
	flag.Parse()

	var jwtCfg config.JWTConfig
	if err := envconfig.Process(config.EnvPrefix, &jwtCfg); err != nil {
		logg.Error(ctx, "failed to load jwt config", err)
		os.Exit(1)
	}

	memberRole, err := enums.ParseMemberRole(*role)
	if err != nil {
		logg.Error(ctx, "invalid role", err)
		os.Exit(1)
	}
	tenantID, err := uuidOrNew(*tenant)
	if err != nil {
		logg.Error(ctx, "invalid tenant id", err)
		os.Exit(1)
	}
	userID, err := uuidOrNew(*user)
	if err != nil {
		logg.Error(ctx, "invalid user id", err)
		os.Exit(1)
	}

	token, err := auth.MintAccessToken(jwtCfg, time.Now(), auth.AccessTokenPayload{
		UserID:   userID,
		TenantID: tenantID,
		Role:     memberRole,
	})
	if err != nil {
		logg.Error(ctx, "failed to mint token", err)
		os.Exit(1)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"tenant_id": tenantID.String(),
		"user_id":   userID.String(),
		"role":      string(memberRole),
	}), "token minted")
	fmt.Println(token)
}

func uuidOrNew(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(raw)
}
