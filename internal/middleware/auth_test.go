package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/chatserver/pkg/auth"
)

// newTestDeps поднимает JWT менеджер и redis поверх miniredis
func newTestDeps(t *testing.T) (*auth.JWTManager, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return auth.NewJWTManager("test-secret", time.Hour), rdb
}

// newTestRouter вешает middleware на защищённый маршрут,
// который отдаёт email из контекста
func newTestRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", mw, func(c *gin.Context) {
		email := c.MustGet(EmailKey).(string)
		c.JSON(http.StatusOK, gin.H{"email": email})
	})
	return r
}

func blacklist(t *testing.T, rdb *redis.Client, token string) {
	t.Helper()
	if err := rdb.Set(context.Background(), "blacklist:"+token, "true", time.Minute).Err(); err != nil {
		t.Fatalf("blacklist token: %v", err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager, rdb := newTestDeps(t)
	router := newTestRouter(AuthMiddleware(jwtManager, rdb))

	token, err := jwtManager.Generate("alice@example.com", "USER")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := auth.NewJWTManager("other-secret", time.Hour)
		forged, err := other.Generate("alice@example.com", "USER")
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("blacklisted token", func(t *testing.T) {
		revoked, err := jwtManager.Generate("bob@example.com", "USER")
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		blacklist(t, rdb, revoked)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+revoked)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
		}
		if body := w.Body.String(); body != `{"email":"alice@example.com"}` {
			t.Errorf("body = %s", body)
		}
	})
}

// WSAuthMiddleware отсекает неавторизованные connect-open до апгрейда:
// последующий обработчик вообще не должен выполняться
func TestWSAuthMiddleware(t *testing.T) {
	jwtManager, rdb := newTestDeps(t)

	gin.SetMode(gin.TestMode)
	handlerCalled := false
	r := gin.New()
	r.GET("/connect", WSAuthMiddleware(jwtManager, rdb), func(c *gin.Context) {
		handlerCalled = true
		c.JSON(http.StatusOK, gin.H{"email": c.MustGet(EmailKey).(string)})
	})

	token, err := jwtManager.Generate("alice@example.com", "USER")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	t.Run("missing token", func(t *testing.T) {
		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/connect", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if handlerCalled {
			t.Error("handler ran for request without token")
		}
	})

	t.Run("garbage token in query", func(t *testing.T) {
		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/connect?token=not-a-jwt", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if handlerCalled {
			t.Error("handler ran for garbage token")
		}
	})

	t.Run("blacklisted token", func(t *testing.T) {
		revoked, err := jwtManager.Generate("bob@example.com", "USER")
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		blacklist(t, rdb, revoked)

		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/connect?token="+revoked, nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if handlerCalled {
			t.Error("handler ran for blacklisted token")
		}
	})

	t.Run("valid token in query", func(t *testing.T) {
		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/connect?token="+token, nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
		}
		if !handlerCalled {
			t.Error("handler did not run for valid token")
		}
	})

	t.Run("valid token in header", func(t *testing.T) {
		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/connect", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
		}
		if !handlerCalled {
			t.Error("handler did not run for valid token")
		}
	})
}
