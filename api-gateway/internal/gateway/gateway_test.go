package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/platform/shared/logging"
	"github.com/taskflow/platform/shared/middleware"
)

type seenRequest struct {
	method    string
	uri       string
	body      string
	requestID string
}

func upstream(t *testing.T, name string, seen *seenRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*seen = seenRequest{
			method:    r.Method,
			uri:       r.URL.RequestURI(),
			body:      string(body),
			requestID: r.Header.Get(middleware.RequestIDHeader),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", name)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"from":"`+name+`"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_ProxiesToServices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var taskSeen, userSeen seenRequest
	tasks := upstream(t, "tasks", &taskSeen)
	users := upstream(t, "users", &userSeen)
	router := NewRouter(Config{TaskServiceURL: tasks.URL + "/", UserServiceURL: users.URL}, logging.Discard())

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		seen     *seenRequest
		upstream string
	}{
		{name: "list tasks with filters", method: http.MethodGet, path: "/tasks?status=done", seen: &taskSeen, upstream: "tasks"},
		{name: "create task", method: http.MethodPost, path: "/tasks", body: `{"title":"t"}`, seen: &taskSeen, upstream: "tasks"},
		{name: "delete task", method: http.MethodDelete, path: "/tasks/3", seen: &taskSeen, upstream: "tasks"},
		{name: "login", method: http.MethodPost, path: "/users/login", body: `{"email":"a@b.c"}`, seen: &userSeen, upstream: "users"},
		{name: "get user", method: http.MethodGet, path: "/users/1", seen: &userSeen, upstream: "users"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set(middleware.RequestIDHeader, "req-1")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusCreated, w.Code)
			assert.JSONEq(t, `{"from":"`+tt.upstream+`"}`, w.Body.String())
			assert.Equal(t, tt.upstream, w.Header().Get("X-Upstream"))
			assert.Equal(t, []string{"req-1"}, w.Header().Values(middleware.RequestIDHeader))
			assert.Equal(t, tt.method, tt.seen.method)
			assert.Equal(t, tt.path, tt.seen.uri)
			assert.Equal(t, tt.body, tt.seen.body)
			assert.Equal(t, "req-1", tt.seen.requestID)
		})
	}
}

func TestRouter_UpstreamDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()
	router := NewRouter(Config{TaskServiceURL: deadURL, UserServiceURL: deadURL}, logging.Discard())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"detail":"Service unavailable"}`, w.Body.String())
}

func TestRouter_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(Config{}, logging.Discard())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
