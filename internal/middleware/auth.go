// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
)

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
	ClaimsKey   contextKey = "jwt_claims"
)

const streamTokenParam = "access_token"

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// SessionValidator confirms that the account behind a verified token can
// still hold a session and reports its current stored role.
type SessionValidator interface {
	ValidateSession(ctx context.Context, claims *AccessTokenClaims) (string, error)
}

type AccessTokenClaims struct {
	UserID       string
	Role         string
	TokenVersion int
	JTI          string
	ExpiresAt    time.Time
}

// Authenticator verifies the bearer token and re-validates the account on
// every request. The role placed in the context is the stored role.
func Authenticator(
	verifier TokenVerifier,
	sessions SessionValidator,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			role, err := sessions.ValidateSession(r.Context(), claims)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, role)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require admits only callers whose stored role satisfies allow.
func Require(allow func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetUserRole(r.Context())

			if role == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if !allow(role) {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return Require(authz.IsAdmin)(next)
}

func RequireSuperAdmin(next http.Handler) http.Handler {
	return Require(authz.IsSuperAdmin)(next)
}

// ExtractToken reads the bearer token. EventSource clients cannot set
// headers, so event-stream requests may pass it as access_token instead.
func ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return strings.TrimSpace(r.URL.Query().Get(streamTokenParam))
	}

	return ""
}

func handleAuthError(w http.ResponseWriter, err error) {
	if appErr := core.ToAppError(err); appErr != nil {
		core.JSONError(w, appErr)
		return
	}
	core.JSONError(w, core.TokenInvalidError())
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if role, ok := ctx.Value(UserRoleKey).(string); ok {
		return role
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}

// ActorFrom is the authenticated caller in the shape services expect.
func ActorFrom(ctx context.Context) authz.Actor {
	return authz.Actor{ID: GetUserID(ctx), Role: GetUserRole(ctx)}
}
