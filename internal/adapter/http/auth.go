package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neomorfeo/assetiq/internal/domain"
)

// AuthConfig controls how callers are identified.
type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens. When empty, the principal is
	// taken from the X-Tenant-ID and X-Capabilities headers (development only).
	JWTSecret string
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

type claims struct {
	jwt.RegisteredClaims
	TenantID     string   `json:"tenant_id,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// IssueToken signs an HS256 token for p, valid for ttl.
func IssueToken(secret string, p domain.Principal, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret not configured")
	}
	caps := make([]string, len(p.Capabilities))
	for i, c := range p.Capabilities {
		caps[i] = string(c)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID:     p.TenantID,
		Capabilities: caps,
	})
	return token.SignedString([]byte(secret))
}

func authenticateJWT(token, secret string) (domain.Principal, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	c := &claims{}
	parsed, err := parser.ParseWithClaims(token, c, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return domain.Principal{}, err
	}
	if !parsed.Valid {
		return domain.Principal{}, errors.New("invalid token")
	}
	if c.Subject == "" {
		return domain.Principal{}, errors.New("subject claim required")
	}
	caps, err := parseCapabilities(c.Capabilities)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{Subject: c.Subject, TenantID: c.TenantID, Capabilities: caps}, nil
}

func authenticateHeaders(r *http.Request) (domain.Principal, bool, error) {
	tenant := strings.TrimSpace(r.Header.Get("X-Tenant-ID"))
	rawCaps := strings.TrimSpace(r.Header.Get("X-Capabilities"))
	if tenant == "" && rawCaps == "" {
		return domain.Principal{}, false, nil
	}

	var names []string
	for _, c := range strings.Split(rawCaps, ",") {
		if c = strings.TrimSpace(c); c != "" {
			names = append(names, c)
		}
	}
	caps, err := parseCapabilities(names)
	if err != nil {
		return domain.Principal{}, false, err
	}

	subject := strings.TrimSpace(r.Header.Get("X-Subject"))
	if subject == "" {
		subject = "dev"
	}
	return domain.Principal{Subject: subject, TenantID: tenant, Capabilities: caps}, true, nil
}

func parseCapabilities(names []string) ([]domain.Capability, error) {
	caps := make([]domain.Capability, 0, len(names))
	for _, name := range names {
		c, err := domain.ParseCapability(name)
		if err != nil {
			return nil, err
		}
		caps = append(caps, c)
	}
	return caps, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// Authenticator attaches the caller's principal to the request context.
// Requests without credentials pass through; operations that need a
// principal reject them. Invalid credentials are rejected here.
func Authenticator(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.JWTSecret == "" {
				p, ok, err := authenticateHeaders(r)
				if err != nil {
					writeUnauthorized(w, err.Error())
					return
				}
				if ok {
					r = r.WithContext(WithPrincipal(r.Context(), p))
				}
				next.ServeHTTP(w, r)
				return
			}

			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if authz == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(authz)
			if !ok {
				writeUnauthorized(w, "invalid credentials")
				return
			}
			p, err := authenticateJWT(token, cfg.JWTSecret)
			if err != nil {
				writeUnauthorized(w, "invalid credentials")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// writeUnauthorized mirrors the problem+json body of ErrorResponse.
func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="assetiq"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":  http.StatusText(http.StatusUnauthorized),
		"status": http.StatusUnauthorized,
		"detail": detail,
		"kind":   string(domain.KindUnauthenticated),
	})
}

func principal(ctx context.Context) (domain.Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return domain.Principal{}, fmt.Errorf("no principal in request: %w", domain.ErrUnauthenticated)
	}
	return p, nil
}
