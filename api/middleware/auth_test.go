package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

const testCookie = "storefront_session"

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, testCookie, stubSessionVerifier{ok: true}, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	var body types.APIResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != UnauthenticatedMessage {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, testCookie, stubSessionVerifier{ok: true}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "invalid"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	handler := Auth(testJWT, testCookie, stubSessionVerifier{ok: false}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: mintTestToken(t, enums.RoleUser)})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidCookie(t *testing.T) {
	var captured struct {
		user   string
		roles  []enums.Role
		access string
	}
	handler := Auth(testJWT, testCookie, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user = UserIDFromContext(r.Context())
		captured.roles = RolesFromContext(r.Context())
		captured.access = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: mintTestToken(t, enums.RoleUser, enums.RoleSeller)})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user != "42" {
		t.Fatalf("expected user id in context, got %q", captured.user)
	}
	if len(captured.roles) != 2 || captured.roles[1] != enums.RoleSeller {
		t.Fatalf("unexpected roles %v", captured.roles)
	}
	if captured.access == "" {
		t.Fatal("expected access id in context")
	}
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	handler := Auth(testJWT, testCookie, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, enums.RoleUser))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRequireCapability(t *testing.T) {
	handler := RequireCapability(enums.CapabilityManageProducts, nil)(okHandler())

	for _, tc := range []struct {
		roles []enums.Role
		want  int
	}{
		{[]enums.Role{enums.RoleUser}, http.StatusForbidden},
		{[]enums.Role{enums.RoleSeller}, http.StatusOK},
		{nil, http.StatusForbidden},
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithRoles(req.Context(), tc.roles))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("roles %v: expected %d got %d", tc.roles, tc.want, resp.Code)
		}
	}
}

func mintTestToken(t *testing.T, roles ...enums.Role) string {
	t.Helper()
	token, err := auth.MintSessionToken(testJWT, time.Now(), auth.SessionPayload{
		UserID:   "42",
		Username: "user1",
		Roles:    roles,
		JTI:      session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestOptionalAuthPassesAnonymousThrough(t *testing.T) {
	var user string
	handler := OptionalAuth(testJWT, testCookie, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
	if resp.Code != http.StatusOK || user != "" {
		t.Fatalf("expected anonymous pass-through, got %d user=%q", resp.Code, user)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: mintTestToken(t, enums.RoleUser)})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if user != "42" {
		t.Fatalf("expected user from cookie, got %q", user)
	}
}

func TestOptionalAuthSurfacesStoreFailure(t *testing.T) {
	handler := OptionalAuth(testJWT, testCookie, stubSessionVerifier{err: context.DeadlineExceeded}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: mintTestToken(t, enums.RoleUser)})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
