package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ray-remotestate/restro/models"
)

type Claims struct {
	AdminID int64    `json:"admin_id"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

type ContextKey string

const (
	userContextKey ContextKey = "user"
)

var ErrUnauthorized = errors.New("unauthorized")

// AuthMiddleware puts the claims of a valid bearer token into the request
// context. Requests without a token pass through anonymously; a token that
// does not verify is rejected.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			tokenStr, err := extractBearerToken(r)
			if err != nil {
				http.Error(w, "unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := ParseToken(secret, tokenStr)
			if err != nil {
				http.Error(w, "unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

func GetAuthenticatedUser(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(userContextKey).(*Claims)
	if !ok {
		return nil, errors.New("no user in context")
	}
	return claims, nil
}

// RequireRole returns ErrUnauthorized unless the context carries claims with
// one of the allowed roles.
func RequireRole(ctx context.Context, allowedRoles ...models.Role) error {
	claims, err := GetAuthenticatedUser(ctx)
	if err != nil {
		return ErrUnauthorized
	}
	for _, userRole := range claims.Roles {
		for _, role := range allowedRoles {
			if models.Role(strings.ToLower(userRole)) == role {
				return nil
			}
		}
	}
	return ErrUnauthorized
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization format")
	}
	return parts[1], nil
}
