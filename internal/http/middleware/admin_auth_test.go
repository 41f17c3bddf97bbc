package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serveAdmin(t *testing.T, cfg AdminAuthConfig, authHeader string) (*httptest.ResponseRecorder, *AdminClaims) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/clinic", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()

	var got *AdminClaims
	AdminJWT(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := AdminClaimsFromContext(r.Context()); ok {
			got = &claims
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, got
}

func signedAdminToken(t *testing.T, secret string, claims AdminClaims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(5 * time.Minute))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAdminJWTRejects(t *testing.T) {
	expired := AdminClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "front-desk",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "front-desk"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name   string
		cfg    AdminAuthConfig
		header string
		want   int
	}{
		{name: "missing secret", cfg: AdminAuthConfig{}, header: "Bearer x", want: http.StatusUnauthorized},
		{name: "missing header", cfg: AdminAuthConfig{Secret: "secret"}, want: http.StatusUnauthorized},
		{name: "wrong scheme", cfg: AdminAuthConfig{Secret: "secret"}, header: "Basic abc", want: http.StatusUnauthorized},
		{name: "wrong key", cfg: AdminAuthConfig{Secret: "secret"}, header: "Bearer " + signedAdminToken(t, "wrong", AdminClaims{}), want: http.StatusUnauthorized},
		{name: "expired", cfg: AdminAuthConfig{Secret: "secret"}, header: "Bearer " + signedAdminToken(t, "secret", expired), want: http.StatusUnauthorized},
		{name: "no expiry", cfg: AdminAuthConfig{Secret: "secret"}, header: "Bearer " + noExpiry, want: http.StatusUnauthorized},
		{
			name:   "wrong issuer",
			cfg:    AdminAuthConfig{Secret: "secret", Issuer: "clinic-auth"},
			header: "Bearer " + signedAdminToken(t, "secret", AdminClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "other"}}),
			want:   http.StatusUnauthorized,
		},
		{
			name:   "role not allowed",
			cfg:    AdminAuthConfig{Secret: "secret", Roles: []string{"admin"}},
			header: "Bearer " + signedAdminToken(t, "secret", AdminClaims{Role: "customer"}),
			want:   http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, claims := serveAdmin(t, tt.cfg, tt.header)
			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
			if claims != nil {
				t.Fatalf("handler should not run")
			}
		})
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	cfg := AdminAuthConfig{Secret: "secret", Issuer: "clinic-auth", Roles: []string{"admin", "staff"}}
	token := signedAdminToken(t, "secret", AdminClaims{
		Role:             "staff",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "front-desk", Issuer: "clinic-auth"},
	})

	rec, claims := serveAdmin(t, cfg, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if claims == nil || claims.Subject != "front-desk" || claims.Role != "staff" {
		t.Fatalf("expected admin claims in context, got %+v", claims)
	}
}
