package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/emberlane/storefront-backend/pkg/auth"
	"github.com/emberlane/storefront-backend/pkg/config"
	"github.com/emberlane/storefront-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 5,
	}
}

func TestAuthSeedsContext(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	userID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var gotUser, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Auth(cfg, nil)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if gotUser != userID.String() {
		t.Fatalf("expected user %s in context, got %q", userID, gotUser)
	}
	if gotRole != string(enums.UserRoleCustomer) {
		t.Fatalf("expected customer role, got %q", gotRole)
	}
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	for name, header := range map[string]string{
		"missing":   "",
		"garbage":   "Bearer not-a-jwt",
		"bare word": "Bearer",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		Auth(cfg, nil)(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	other := testJWTConfig()
	other.Secret = "different-secret"
	token, err := pkgAuth.MintAccessToken(other, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	handler := RequireRole(string(enums.UserRoleAdmin), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleAdmin)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected admin through, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleCustomer)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}
}
