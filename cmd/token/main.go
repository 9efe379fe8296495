// Package main mints operator access tokens signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"stockbook/internal/config"
	"stockbook/internal/domain/auth"
)

func main() {
	user := flag.String("user", "", "Required: operator id (token subject)")
	email := flag.String("email", "", "Optional: operator email")
	perms := flag.String("perms", "stockbook:read,stockbook:write", "comma-separated permissions")
	roles := flag.String("roles", "", "comma-separated roles")
	admin := flag.Bool("admin", false, "grant every permission")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_ACCESS_TTL)")
	flag.Parse()

	if strings.TrimSpace(*user) == "" {
		fmt.Fprintln(os.Stderr, "--user is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtCfg.AccessTokenTTL = cfg.JWTAccessTTL
	if *ttl > 0 {
		jwtCfg.AccessTokenTTL = *ttl
	}

	token, expiresAt, err := auth.NewJWTService(jwtCfg).GenerateAccessToken(auth.Operator{
		UserID:      strings.TrimSpace(*user),
		Email:       *email,
		Roles:       splitList(*roles),
		Permissions: splitList(*perms),
		IsAdmin:     *admin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
