package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"microblog/api/config"
	"microblog/api/controllers"
	"microblog/api/models"
	"microblog/api/utils/testdb"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:         "test",
		ServiceName:    "microblog",
		APISecret:      "test-secret",
		SessionSecret:  "test-session-secret",
		TokenTTL:       time.Hour,
		FeedCacheTTL:   time.Second,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

func newTestServer(t *testing.T) *controllers.Server {
	return newTestServerWithLogger(t, zap.NewNop())
}

func newTestServerWithLogger(t *testing.T, log *zap.Logger) *controllers.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	server := &controllers.Server{}
	server.Setup(testdb.Open(t), testConfig(), log)
	return server
}

type request struct {
	method  string
	path    string
	body    interface{}
	token   string
	cookies []*http.Cookie
}

func do(t *testing.T, server *controllers.Server, r request) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for _, ck := range r.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func tokenFor(t *testing.T, server *controllers.Server, user *models.User) string {
	t.Helper()
	token, err := server.Tokens.CreateToken(user.ID)
	require.NoError(t, err)
	return token
}

func responseList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	list, ok := decode(t, w)["response"].([]interface{})
	require.True(t, ok, w.Body.String())
	return list
}
