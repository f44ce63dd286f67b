package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidhaven/vidhaven/internal/httputil"
)

func applySecurityHeaders(t *testing.T, cfg SecurityConfig) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var nonce string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce = httputil.NonceFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	securityHeaders(cfg)(inner).ServeHTTP(rec, req)
	return rec, nonce
}

func TestSecurityHeaders_CSPContainsNonce(t *testing.T) {
	rec, nonce := applySecurityHeaders(t, SecurityConfig{BaseURL: "https://app.test"})

	if nonce == "" {
		t.Fatal("expected non-empty nonce in request context")
	}
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "script-src 'self' 'nonce-"+nonce+"' https:") {
		t.Errorf("CSP script-src should nonce-gate inline scripts, got: %s", csp)
	}
	if !strings.Contains(csp, "style-src 'self' 'nonce-"+nonce+"'") {
		t.Errorf("CSP style-src should contain the nonce, got: %s", csp)
	}
}

func TestSecurityHeaders_CSPAllowsAdNetworkSources(t *testing.T) {
	rec, _ := applySecurityHeaders(t, SecurityConfig{BaseURL: "https://app.test"})

	csp := rec.Header().Get("Content-Security-Policy")
	// Ad creatives load scripts from arbitrary https hosts and carry inline
	// style attributes, so both must be permitted.
	if !strings.Contains(csp, "script-src 'self' 'nonce-") || !strings.Contains(csp, "' https:;") {
		t.Errorf("CSP script-src should allow remote https scripts, got: %s", csp)
	}
	if !strings.Contains(csp, "'unsafe-inline'") {
		t.Errorf("CSP style-src should allow inline creative styles, got: %s", csp)
	}
}

func TestSecurityHeaders_CSPIncludesStorageEndpoint(t *testing.T) {
	rec, _ := applySecurityHeaders(t, SecurityConfig{
		BaseURL:         "https://app.test",
		StorageEndpoint: "https://storage.example.com",
	})

	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "media-src 'self' data: blob: https: https://storage.example.com") {
		t.Errorf("CSP media-src should include storage endpoint, got: %s", csp)
	}
	if !strings.Contains(csp, "connect-src 'self' https: https://storage.example.com") {
		t.Errorf("CSP connect-src should include storage endpoint, got: %s", csp)
	}
}

func TestSecurityHeaders_UniqueNoncePerRequest(t *testing.T) {
	var nonces []string
	for i := 0; i < 3; i++ {
		_, nonce := applySecurityHeaders(t, SecurityConfig{BaseURL: "https://app.test"})
		nonces = append(nonces, nonce)
	}

	if nonces[0] == nonces[1] || nonces[1] == nonces[2] {
		t.Errorf("expected unique nonces per request, got %v", nonces)
	}
}

func TestSecurityHeaders_PermissionsPolicyDeniesAll(t *testing.T) {
	rec, _ := applySecurityHeaders(t, SecurityConfig{BaseURL: "https://app.test"})

	pp := rec.Header().Get("Permissions-Policy")
	for _, directive := range []string{"camera=()", "microphone=()", "geolocation=()"} {
		if !strings.Contains(pp, directive) {
			t.Errorf("Permissions-Policy should contain %s, got: %s", directive, pp)
		}
	}
}

func TestSecurityHeaders_HSTSOnHTTPS(t *testing.T) {
	rec, _ := applySecurityHeaders(t, SecurityConfig{BaseURL: "https://app.test"})

	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS header for HTTPS base URL")
	}
}

func TestSecurityHeaders_NoHSTSOnHTTP(t *testing.T) {
	rec, _ := applySecurityHeaders(t, SecurityConfig{BaseURL: "http://localhost:8080"})

	if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("expected no HSTS for HTTP base URL, got: %s", hsts)
	}
}

func TestSecurityHeaders_FrameAncestorsSelf(t *testing.T) {
	rec, _ := applySecurityHeaders(t, SecurityConfig{BaseURL: "https://app.test"})

	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "frame-ancestors 'self'") {
		t.Errorf("CSP should contain frame-ancestors 'self', got: %s", csp)
	}
}
