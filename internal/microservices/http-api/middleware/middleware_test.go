package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"afriotv/internal/microservices/http-api/service"
	"afriotv/internal/microservices/http-api/service/servicetest"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func setupRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", append(mw, func(c *gin.Context) {
		caller := Caller(c)
		c.JSON(http.StatusOK, gin.H{"uid": caller.UID, "admin": caller.Admin})
	})...)
	return r
}

func adaClaims(admin bool) *service.Claims {
	return &service.Claims{
		Email:            "ada@example.com",
		Admin:            admin,
		Type:             service.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}
}

func TestAuthMiddleware(t *testing.T) {
	auth := new(servicetest.MockAuthService)
	auth.On("ValidateToken", "good").Return(adaClaims(false), nil)
	auth.On("ValidateToken", "old").Return(nil, service.ErrExpiredToken)
	auth.On("ValidateToken", "bad").Return(nil, errors.New("signature is invalid"))

	router := setupRouter(AuthMiddleware(auth))

	tests := []struct {
		name   string
		header string
		target string
		status int
		body   string
	}{
		{"valid header", "Bearer good", "/", http.StatusOK, `{"uid":"user-1","admin":false}`},
		{"query token", "", "/?token=good", http.StatusOK, `{"uid":"user-1","admin":false}`},
		{"missing", "", "/", http.StatusUnauthorized, `{"error":"missing authorization header"}`},
		{"wrong scheme", "Basic abc", "/", http.StatusUnauthorized, `{"error":"invalid authorization header format"}`},
		{"expired", "Bearer old", "/", http.StatusUnauthorized, `{"error":"token has expired"}`},
		{"invalid", "Bearer bad", "/", http.StatusUnauthorized, `{"error":"invalid token"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	auth := new(servicetest.MockAuthService)
	auth.On("ValidateToken", "good").Return(adaClaims(true), nil)
	auth.On("ValidateToken", "bad").Return(nil, service.ErrInvalidToken)

	router := setupRouter(OptionalAuth(auth))

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"uid":"","admin":false}`, w.Body.String())
	})

	t.Run("signed in admin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"uid":"user-1","admin":true}`, w.Body.String())
	})

	t.Run("invalid token still rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer bad")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	auth := new(servicetest.MockAuthService)
	auth.On("ValidateToken", "user").Return(adaClaims(false), nil)
	auth.On("ValidateToken", "admin").Return(adaClaims(true), nil)

	router := setupRouter(AuthMiddleware(auth), RequireAdmin())

	for token, status := range map[string]int{"user": http.StatusForbidden, "admin": http.StatusOK} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, token)
	}
}

func TestRateLimit(t *testing.T) {
	router := setupRouter(RateLimit(NewIPRateLimiter(2)))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
			assert.Contains(t, w.Body.String(), "429")
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// a different client has its own bucket
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
