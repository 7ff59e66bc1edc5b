package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"papertrade/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupProtectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthMiddleware(), func(c *gin.Context) {
		userID, _ := c.Get("userID")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func doAuthRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGenerateToken(t *testing.T) {
	user := &models.User{Base: models.Base{ID: 42}, Email: "test@example.com"}

	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (interface{}, error) {
		return getJWTKey(), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("generated token should parse as valid: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user ID 42 in claims, got %d", claims.UserID)
	}
	if claims.Issuer != "papertrade-api" {
		t.Errorf("unexpected issuer %q", claims.Issuer)
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("accepts valid token", func(t *testing.T) {
		user := &models.User{Base: models.Base{ID: 7}, Email: "test@example.com"}
		token, err := GenerateToken(user)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		rec := doAuthRequest(setupProtectedRouter(), "Bearer "+token)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects missing header", func(t *testing.T) {
		rec := doAuthRequest(setupProtectedRouter(), "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed header", func(t *testing.T) {
		rec := doAuthRequest(setupProtectedRouter(), "Token abc123")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		rec := doAuthRequest(setupProtectedRouter(), "Bearer not.a.jwt")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects token signed with wrong key", func(t *testing.T) {
		claims := &JWTClaims{
			UserID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("some-other-key"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		rec := doAuthRequest(setupProtectedRouter(), "Bearer "+signed)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
