package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dema10/beerproject/models"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validToken(t *testing.T, claims jwt.MapClaims) string {
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	return sign(t, jwt.SigningMethodHS256, []byte(secret), claims)
}

// newAuthRouter echoes the identity ValidateToken stored.
func newAuthRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", ValidateToken(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, Identity(c))
	})
	r.GET("/admin", ValidateToken(secret), RequireAdmin, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateToken(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantBody string
	}{
		{
			name:     "user_id claim",
			token:    validToken(t, jwt.MapClaims{"user_id": "alice"}),
			wantCode: http.StatusOK,
			wantBody: `{"user_id":"alice","role":"user"}`,
		},
		{
			name:     "sub fallback and admin role",
			token:    validToken(t, jwt.MapClaims{"sub": "root", "role": "ADMIN"}),
			wantCode: http.StatusOK,
			wantBody: `{"user_id":"root","role":"admin"}`,
		},
		{
			name:     "numeric user id",
			token:    validToken(t, jwt.MapClaims{"user_id": float64(42)}),
			wantCode: http.StatusOK,
			wantBody: `{"user_id":"42","role":"user"}`,
		},
		{
			name:     "missing",
			wantCode: http.StatusUnauthorized,
			wantBody: `{"message":"Authorization header is missing"}`,
		},
		{
			name:     "expired",
			token:    validToken(t, jwt.MapClaims{"user_id": "alice", "exp": time.Now().Add(-time.Minute).Unix()}),
			wantCode: http.StatusUnauthorized,
			wantBody: `{"message":"Invalid or expired token"}`,
		},
		{
			name:     "wrong key",
			token:    sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "alice"}),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "other algorithm",
			token:    sign(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{"user_id": "alice"}),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "no subject",
			token:    validToken(t, jwt.MapClaims{"role": "admin"}),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "garbage",
			token:    "not.a.jwt",
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, "/me", tt.token)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestValidateTokenFromQuery(t *testing.T) {
	r := newAuthRouter()
	token := validToken(t, jwt.MapClaims{"user_id": "alice"})

	w := do(r, "/me?token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"alice","role":"user"}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := newAuthRouter()

	w := do(r, "/admin", validToken(t, jwt.MapClaims{"user_id": "alice"}))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"Admin role required"}`, w.Body.String())

	w = do(r, "/admin", validToken(t, jwt.MapClaims{"user_id": "root", "role": "admin"}))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityWithoutToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	id := Identity(c)
	assert.True(t, id.Anonymous())
	assert.Equal(t, models.Identity{}, id)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := do(r, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"level":"INFO"`)
	assert.Contains(t, buf.String(), `"path":"/ping"`)

	buf.Reset()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-7", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"request_id":"req-7"`)
}
