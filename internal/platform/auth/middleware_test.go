package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func runMiddleware(t *testing.T, cfg JWTConfig, header string) (echo.Context, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/patients", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	var seen echo.Context
	handler := func(c echo.Context) error {
		called = true
		seen = c
		return nil
	}
	err := JWTMiddleware(cfg)(handler)(c)
	if seen == nil {
		seen = c
	}
	return seen, called, err
}

func expectUnauthorized(t *testing.T, err error) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, called, err := runMiddleware(t, JWTConfig{SigningKey: testSigningKey}, "")
	expectUnauthorized(t, err)
	if called {
		t.Error("handler should not run")
	}
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runMiddleware(t, JWTConfig{SigningKey: testSigningKey}, tt.header)
			expectUnauthorized(t, err)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	tok := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "clinician-7",
			Issuer:    "recorder",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"editor"},
	}, testSigningKey)

	c, called, err := runMiddleware(t, JWTConfig{SigningKey: testSigningKey, Issuer: "recorder"}, "Bearer "+tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected handler to run")
	}
	if got := UserIDFromContext(c.Request().Context()); got != "clinician-7" {
		t.Errorf("expected subject clinician-7, got %q", got)
	}
	if roles := RolesFromContext(c.Request().Context()); len(roles) != 1 || roles[0] != "editor" {
		t.Errorf("unexpected roles %v", roles)
	}
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	expired := createTestToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}, testSigningKey)
	wrongKey := createTestToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}, []byte("other-key"))
	wrongIssuer := createTestToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", Issuer: "elsewhere"}}, testSigningKey)

	for name, tok := range map[string]string{"expired": expired, "wrong key": wrongKey, "wrong issuer": wrongIssuer} {
		t.Run(name, func(t *testing.T) {
			_, called, err := runMiddleware(t, JWTConfig{SigningKey: testSigningKey, Issuer: "recorder"}, "Bearer "+tok)
			expectUnauthorized(t, err)
			if called {
				t.Error("handler should not run")
			}
		})
	}
}

func TestJWTMiddleware_Skipper(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey, Skipper: func(echo.Context) bool { return true }}
	_, called, err := runMiddleware(t, cfg, "")
	if err != nil || !called {
		t.Errorf("expected skipped request to pass, err=%v called=%v", err, called)
	}
}

func TestIssueToken_RoundTrip(t *testing.T) {
	tok, err := IssueToken(testSigningKey, "recorder", "cli", []string{"editor"}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, _, err := runMiddleware(t, JWTConfig{SigningKey: testSigningKey, Issuer: "recorder"}, "Bearer "+tok)
	if err != nil {
		t.Fatalf("issued token rejected: %v", err)
	}
	if UserIDFromContext(c.Request().Context()) != "cli" {
		t.Error("expected subject cli")
	}

	if _, err := IssueToken(nil, "", "x", nil, time.Hour); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestCredential_Authorize(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	Authorize(req)
	if req.Header.Get("Authorization") != "" {
		t.Error("expected no header without credential")
	}

	ctx := WithCredential(context.Background(), Credential{Token: "abc"})
	req = req.WithContext(ctx)
	Authorize(req)
	if got := req.Header.Get("Authorization"); got != "Bearer abc" {
		t.Errorf("expected bearer header, got %q", got)
	}

	if _, ok := CredentialFromContext(WithCredential(context.Background(), Credential{Token: "  "})); ok {
		t.Error("blank token should not be stored")
	}
}
