package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"memo-app/src/config"
	"memo-app/src/infrastructure/repository"
	"memo-app/src/interface/handler"
	"memo-app/src/routes"
	"memo-app/src/service"
	"memo-app/src/storage"
	"memo-app/src/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *gin.Engine
	kv     *storage.MemoryStore
	token  string
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		Auth: config.AuthConfig{
			Enabled:      authEnabled,
			JWTSecret:    "routes-test-secret",
			JWTExpiresIn: time.Hour,
		},
	}

	kv := storage.NewMemoryStore()
	memoUsecase := usecase.NewMemoUsecase(repository.NewMemoRepository(kv, log), log)
	_, err := memoUsecase.Initialize(context.Background())
	require.NoError(t, err)

	jwtService := service.NewJWTService(cfg.Auth)
	token, err := jwtService.GenerateAccessToken("routes-test")
	require.NoError(t, err)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	routes.SetupRoutes(r, handler.NewMemoHandler(memoUsecase, log), cfg, jwtService)

	return &testServer{router: r, kv: kv, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, handler.MemoListResponseDTO) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp handler.MemoListResponseDTO
	if w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func (s *testServer) persisted(t *testing.T, key string) string {
	t.Helper()
	value, ok, err := s.kv.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	return value
}

func TestRoutes_MemoLifecycle(t *testing.T) {
	s := newTestServer(t, false)

	code, list := s.do(t, http.MethodPost, "/api/memos", nil)
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, list.Memos, 1)
	assert.Equal(t, 1, list.Memos[0].ID)
	assert.True(t, list.Memos[0].IsEditing)

	code, _ = s.do(t, http.MethodPatch, "/api/memos/1/content", map[string]string{"content": "Buy milk"})
	require.Equal(t, http.StatusOK, code)

	code, list = s.do(t, http.MethodPut, "/api/memos/1", map[string]string{"content": "Buy milk"})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, list.Memos[0].IsEditing)

	// 新規メモを作ってすぐキャンセルすると消える
	code, list = s.do(t, http.MethodPost, "/api/memos", nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 2, list.Memos[0].ID)

	code, list = s.do(t, http.MethodPost, "/api/memos/2/cancel", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Memos, 1)
	assert.Equal(t, "Buy milk", list.Memos[0].Content)

	assert.Equal(t, "3", s.persisted(t, repository.NextIDKey))
	assert.Contains(t, s.persisted(t, repository.MemosKey), `"content":"Buy milk"`)
}

func TestRoutes_SearchAndQuery(t *testing.T) {
	s := newTestServer(t, false)

	for _, content := range []string{"Buy milk", "Call mom", "MILK tea"} {
		code, list := s.do(t, http.MethodPost, "/api/memos", nil)
		require.Equal(t, http.StatusCreated, code)
		id := list.Memos[0].ID
		code, _ = s.do(t, http.MethodPut, "/api/memos/"+strconv.Itoa(id), map[string]string{"content": content})
		require.Equal(t, http.StatusOK, code)
	}

	code, list := s.do(t, http.MethodGet, "/api/memos/search?q=milk", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list.Memos, 2)
	assert.Equal(t, 3, list.Total)

	// searchは現在のクエリを変えない
	_, list = s.do(t, http.MethodGet, "/api/memos", nil)
	assert.Len(t, list.Memos, 3)

	code, list = s.do(t, http.MethodPut, "/api/memos/query", map[string]string{"query": "mom"})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list.Memos, 1)

	_, list = s.do(t, http.MethodGet, "/api/memos", nil)
	assert.Equal(t, "mom", list.Query)
	assert.Len(t, list.Memos, 1)

	// GETのsearchパラメータはその応答だけを絞り込む
	_, list = s.do(t, http.MethodGet, "/api/memos?search=milk", nil)
	assert.Len(t, list.Memos, 2)
	_, list = s.do(t, http.MethodGet, "/api/memos?search=", nil)
	assert.Len(t, list.Memos, 3)

	_, list = s.do(t, http.MethodGet, "/api/memos", nil)
	assert.Equal(t, "mom", list.Query)
	assert.Len(t, list.Memos, 1)

	code, list = s.do(t, http.MethodPut, "/api/memos/query", map[string]string{"query": ""})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list.Memos, 3)
}

func TestRoutes_DeleteRequiresConfirmation(t *testing.T) {
	s := newTestServer(t, false)

	_, _ = s.do(t, http.MethodPost, "/api/memos", nil)
	_, _ = s.do(t, http.MethodPut, "/api/memos/1", map[string]string{"content": "keep me?"})

	code, _ := s.do(t, http.MethodDelete, "/api/memos/1", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, list := s.do(t, http.MethodDelete, "/api/memos/1?confirm=true", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, list.Memos)
	assert.Equal(t, "[]", s.persisted(t, repository.MemosKey))

	code, _ = s.do(t, http.MethodDelete, "/api/memos/1?confirm=true", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRoutes_Auth(t *testing.T) {
	s := newTestServer(t, true)

	t.Run("トークンなしは401", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/memos", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("有効なトークン", func(t *testing.T) {
		code, _ := s.do(t, http.MethodGet, "/api/memos", nil)
		assert.Equal(t, http.StatusOK, code)
	})
}

func TestRoutes_Preflight(t *testing.T) {
	for _, authEnabled := range []bool{false, true} {
		s := newTestServer(t, authEnabled)

		for _, tc := range []struct {
			path   string
			method string
		}{
			{path: "/api/memos/1", method: http.MethodPut},
			{path: "/api/memos/1", method: http.MethodDelete},
			{path: "/api/memos/1/content", method: http.MethodPatch},
			{path: "/api/memos", method: http.MethodPost},
		} {
			t.Run(tc.method+" "+tc.path+" auth="+strconv.FormatBool(authEnabled), func(t *testing.T) {
				req := httptest.NewRequest(http.MethodOptions, tc.path, nil)
				req.Header.Set("Origin", "http://localhost:3000")
				req.Header.Set("Access-Control-Request-Method", tc.method)

				w := httptest.NewRecorder()
				s.router.ServeHTTP(w, req)

				assert.Equal(t, http.StatusNoContent, w.Code)
				assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), tc.method)
			})
		}
	}
}
