package middleware_test

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwallet/backend/internal/api/middleware"
	"github.com/cardwallet/backend/internal/application/loaders"
	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/mocks"
	apperrors "github.com/cardwallet/backend/pkg/errors"
)

type staticValidator map[string]string

func (v staticValidator) ValidateToken(ctx context.Context, token string) (*entities.Session, error) {
	if userID, ok := v[token]; ok {
		return &entities.Session{Token: token, UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	return nil, apperrors.NewUnauthorizedError("invalid or expired token")
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	_, _ = w.Write([]byte(userID + "|" + middleware.TokenFromContext(r.Context())))
}

func TestAuthMiddleware(t *testing.T) {
	handler := middleware.AuthMiddleware(staticValidator{"good": "user-1"})(http.HandlerFunc(echoUser))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer good", http.StatusOK, "user-1|good"},
		{"lowercase scheme", "bearer good", http.StatusOK, "user-1|good"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	t.Run("preflight", func(t *testing.T) {
		handler := middleware.CORSMiddleware([]string{"https://wallet.example.com"})(next)
		req := httptest.NewRequest(http.MethodOptions, "/api/cards", nil)
		req.Header.Set("Origin", "https://wallet.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://wallet.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("disallowed origin", func(t *testing.T) {
		handler := middleware.CORSMiddleware([]string{"https://wallet.example.com"})(next)
		req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard default", func(t *testing.T) {
		handler := middleware.CORSMiddleware(nil)(next)
		req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	handler := middleware.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestCompression(t *testing.T) {
	handler := middleware.Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cards":[]}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, `{"cards":[]}`, string(body))
}

func TestLoadersMiddleware(t *testing.T) {
	var attached bool
	handler := middleware.LoadersMiddleware(new(mocks.CardRepository))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attached = loaders.For(r.Context()) != nil
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cards", nil))
	assert.True(t, attached)
}
