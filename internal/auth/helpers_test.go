package auth_test

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-guard/internal/auth"
	"github.com/spec-kit/storefront-guard/internal/domain"
)

var fixedNow = time.Unix(1_760_000_000, 0)

func clock() time.Time { return fixedNow }

func mintToken(t *testing.T, exp time.Time, roles ...string) string {
	t.Helper()
	if roles == nil {
		roles = []string{}
	}
	claims := jwt.MapClaims{
		"sub":                "user-1",
		"preferred_username": "ana",
		"exp":                exp.Unix(),
		"realm_access":       map[string]any{"roles": roles},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("issuer-secret"))
	require.NoError(t, err)
	return signed
}

func testRoutes() auth.Routes {
	return auth.Routes{
		Login:        "/login",
		Unauthorized: "/unauthorized",
		Dashboard:    "/dashboard",
		Homes: []auth.RoleHome{
			{Role: domain.RoleAdmin, Path: "/admin"},
			{Role: domain.RoleUser, Path: "/dashboard"},
		},
	}
}
