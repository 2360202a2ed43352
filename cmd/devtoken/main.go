// Command devtoken mints a UI access token for local testing.
// In production the host application issues these tokens with the same secret.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"twilio-integration/internal/auth"
	"twilio-integration/internal/config"
	"twilio-integration/internal/rbac"
)

func main() {
	user := flag.String("user", "", "user email (required)")
	role := flag.String("role", rbac.RoleAgent, "role: agent, admin or system_manager")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if strings.TrimSpace(*user) == "" {
		slog.Error("-user is required")
		os.Exit(2)
	}

	m, err := auth.NewManager(config.AuthConfig{
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      os.Getenv("JWT_ISSUER"),
		JWTAudience:    os.Getenv("JWT_AUDIENCE"),
		AccessTokenTTL: *ttl,
	})
	if err != nil {
		slog.Error("auth init failed", "err", err)
		os.Exit(1)
	}
	tok, err := m.Issue(time.Now(), *user, *role)
	if err != nil {
		slog.Error("issue token failed", "err", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
