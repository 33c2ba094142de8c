package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tabi/pkg/utils"
)

type denylist map[string]bool

func (d denylist) IsRevoked(_ context.Context, jti string) (bool, error) { return d[jti], nil }

func newRouter(revoked RevocationChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.GET("/me", JWTAuthMiddleware(revoked), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	r.GET("/admin", JWTAuthMiddleware(revoked), RoleMiddleware("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	utils.ConfigureJWT("test-secret", time.Minute)
	uid := uuid.New()
	token, claims, err := utils.CreateToken(uid, "user")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		prepare func(*http.Request)
		revoked denylist
		want    int
	}{
		{"missing", func(*http.Request) {}, nil, http.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, nil, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, nil, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) }, nil, http.StatusOK},
		{"signed out", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, denylist{claims.ID: true}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			newRouter(tt.revoked).ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("got %d want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && w.Body.String() != uid.String() {
				t.Fatalf("user id not propagated: %s", w.Body.String())
			}
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	utils.ConfigureJWT("test-secret", time.Minute)
	token, _, _ := utils.CreateToken(uuid.New(), "user")

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if _, err := uuid.Parse(w.Header().Get("X-Trace-ID")); err != nil {
		t.Fatalf("missing trace id header: %v", err)
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Trace-ID", id)
	w = httptest.NewRecorder()
	newRouter(nil).ServeHTTP(w, req)
	if w.Header().Get("X-Trace-ID") != id {
		t.Fatalf("incoming trace id should be reused")
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight response %d %v", w.Code, w.Header())
	}
}
