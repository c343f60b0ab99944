package middleware

import (
	"context"
	"crypto/rsa"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenRevocations answers whether a token id has been revoked out-of-band.
// A nil checker disables the check.
type TokenRevocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthMiddleware struct {
	publicKey   *rsa.PublicKey
	revocations TokenRevocations
}

func NewAuthMiddleware(publicKey *rsa.PublicKey, revocations TokenRevocations) *AuthMiddleware {
	return &AuthMiddleware{
		publicKey:   publicKey,
		revocations: revocations,
	}
}

type contextKey string

const (
	AccountIDKey contextKey = "accountID"
	ActorKey     contextKey = "actor"
	RoleKey      contextKey = "role"
)

// Actor returns the acting identity placed in the context by RequireRole,
// or the empty string outside an authenticated request. Audit entries built
// from an empty actor fall back to "Unknown" in the core.
func Actor(ctx context.Context) string {
	actor, _ := ctx.Value(ActorKey).(string)
	return actor
}

// ActorAccountID returns the authenticated account id, if any.
func ActorAccountID(ctx context.Context) string {
	id, _ := ctx.Value(AccountIDKey).(string)
	return id
}

func (m *AuthMiddleware) RequireRole(roles []string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.publicKey, nil
		})
		if err != nil || !token.Valid {
			log.Printf("auth: token rejected: %v", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			http.Error(w, "invalid token claims", http.StatusUnauthorized)
			return
		}

		accountID, ok := claims["sub"].(string)
		if !ok || accountID == "" {
			http.Error(w, "invalid token: missing subject", http.StatusUnauthorized)
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role == "" {
			http.Error(w, "invalid token: missing role", http.StatusUnauthorized)
			return
		}

		if m.revocations != nil {
			if tokenID, _ := claims["jti"].(string); tokenID != "" {
				revoked, err := m.revocations.IsRevoked(r.Context(), tokenID)
				if err != nil {
					// fail closed: an unverifiable token does not get in
					log.Printf("auth: revocation check failed: %v", err)
					http.Error(w, "authorization unavailable", http.StatusServiceUnavailable)
					return
				}
				if revoked {
					http.Error(w, "token revoked", http.StatusUnauthorized)
					return
				}
			}
		}

		allowed := false
		for _, allowedRole := range roles {
			if role == allowedRole {
				allowed = true
				break
			}
		}
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		// the actor recorded in audit entries: the email claim when issued,
		// otherwise the account id
		actor, _ := claims["email"].(string)
		if actor == "" {
			actor = accountID
		}

		ctx := context.WithValue(r.Context(), AccountIDKey, accountID)
		ctx = context.WithValue(ctx, ActorKey, actor)
		ctx = context.WithValue(ctx, RoleKey, role)

		next(w, r.WithContext(ctx))
	}
}
