package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type stubVerifier struct {
	token *jwt.Token
	err   error
}

func (s *stubVerifier) VerifyAccessToken(string) (*jwt.Token, error) {
	return s.token, s.err
}

func validToken(sub, role string) *jwt.Token {
	return &jwt.Token{
		Valid:  true,
		Claims: jwt.MapClaims{"sub": sub, "role": role},
	}
}

func newAuthRouter(verifier JWTVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthRequired(verifier))
	r.GET("/whoami", func(c *gin.Context) {
		id := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID(), "role": id.Role()})
	})
	return r
}

func doRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredAcceptsValidBearerToken(t *testing.T) {
	userID := uuid.New()
	r := newAuthRouter(&stubVerifier{token: validToken(userID.String(), "technician")})

	w := doRequest(r, "Bearer token")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestAuthRequiredBearerPrefixIsCaseInsensitive(t *testing.T) {
	r := newAuthRouter(&stubVerifier{token: validToken(uuid.NewString(), "admin")})

	w := doRequest(r, "bearer token")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthRequiredRejectsMalformedHeaders(t *testing.T) {
	r := newAuthRouter(&stubVerifier{token: validToken(uuid.NewString(), "admin")})

	for _, header := range []string{"", "token", "Basic dXNlcjpwYXNz"} {
		w := doRequest(r, header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestAuthRequiredRejectsVerifierFailure(t *testing.T) {
	r := newAuthRouter(&stubVerifier{err: errors.New("expired")})

	w := doRequest(r, "Bearer token")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthRequiredRejectsUnknownRoleClaim(t *testing.T) {
	for _, role := range []string{"", "root", "manager", "superadmin"} {
		r := newAuthRouter(&stubVerifier{token: validToken(uuid.NewString(), role)})
		w := doRequest(r, "Bearer token")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("role %q: status = %d, want %d", role, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestAuthRequiredNormalizesRoleClaim(t *testing.T) {
	r := newAuthRouter(&stubVerifier{token: validToken(uuid.NewString(), "  Supervisor ")})

	w := doRequest(r, "Bearer token")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); !strings.Contains(body, `"role":"supervisor"`) {
		t.Fatalf("body = %s, want canonical role supervisor", body)
	}
}

func TestAuthRequiredRejectsNonUUIDSubject(t *testing.T) {
	r := newAuthRouter(&stubVerifier{token: validToken("not-a-uuid", "admin")})

	w := doRequest(r, "Bearer token")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireRoleFiltersByRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthRequired(&stubVerifier{token: validToken(uuid.NewString(), "technician")}))
	r.GET("/admin-only", RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/tech-ok", RequireRole("admin", "technician"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	if w := doRequestPath(r, "/admin-only"); w.Code != http.StatusForbidden {
		t.Errorf("admin-only: status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if w := doRequestPath(r, "/tech-ok"); w.Code != http.StatusOK {
		t.Errorf("tech-ok: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func doRequestPath(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

