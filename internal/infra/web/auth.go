package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"oraclia-chat-platform/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
)

// AuthConfig carries the signing material for session tokens. HMACSecret is
// required; the zero TTL falls back to 24h.
type AuthConfig struct {
	HMACSecret []byte
	CookieName string
	TTL        time.Duration
}

// Claims is the token payload. Subject carries the user id; Role decides
// which routes the bearer may reach.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID is the token subject.
func (c *Claims) UserID() string { return c.Subject }

// AuthManager mints, clears and validates session tokens. Tokens travel
// either as a Bearer header or as an HTTP-only cookie; the header wins when
// both are present.
type AuthManager struct {
	cfg AuthConfig
}

func NewAuthManager(cfg AuthConfig) (*AuthManager, error) {
	if len(cfg.HMACSecret) == 0 {
		return nil, errors.New("auth: empty HMAC secret")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "chat_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &AuthManager{cfg: cfg}, nil
}

// Mint signs a token for the user, sets it as a session cookie and returns
// the signed string for header-based clients.
func (a *AuthManager) Mint(w http.ResponseWriter, userID string, role model.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.cfg.HMACSecret)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(a.cfg.TTL),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Clear expires the session cookie.
func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

var errNoToken = errors.New("auth: no token")

// ParseFromRequest extracts and validates the token from the Authorization
// header or the session cookie.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*Claims, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return a.parse(strings.TrimPrefix(h, "Bearer "))
	}
	c, err := r.Cookie(a.cfg.CookieName)
	if err != nil {
		return nil, errNoToken
	}
	return a.parse(c.Value)
}

func (a *AuthManager) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: unexpected signing method")
		}
		return a.cfg.HMACSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	return claims, nil
}

type ctxKeyClaims struct{}

// ClaimsFrom returns the authenticated claims placed by Middleware.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims{}).(*Claims)
	return c, ok
}

// Middleware rejects unauthenticated requests and threads the claims
// through the request context.
func (a *AuthManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims{}, claims)))
	})
}

// RequireRole gates a subtree on the bearer's role.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "insufficient role")
		})
	}
}

// allowSelf permits a request scoped to ownerID when the bearer is that user
// or an admin.
func allowSelf(claims *Claims, ownerID string) bool {
	return claims.Role == model.RoleAdmin || claims.UserID() == ownerID
}
