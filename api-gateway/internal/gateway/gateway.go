// Package gateway fronts the task and user services with one HTTP entrypoint.
package gateway

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskflow/platform/shared/middleware"
)

const upstreamTimeout = 10 * time.Second

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Content-Length":    true,
}

type Config struct {
	TaskServiceURL string
	UserServiceURL string
}

// NewRouter wires /tasks and /users to their services.
func NewRouter(cfg Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(logger))

	client := &http.Client{Timeout: upstreamTimeout}
	tasks := proxyTo(client, strings.TrimRight(cfg.TaskServiceURL, "/"), logger)
	users := proxyTo(client, strings.TrimRight(cfg.UserServiceURL, "/"), logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "api-gateway"})
	})

	router.Any("/tasks", tasks)
	router.Any("/tasks/*path", tasks)
	router.Any("/users/*path", users)

	return router
}

func proxyTo(client *http.Client, serviceURL string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		var body io.Reader
		if c.Request.Body != nil {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err != nil {
				middleware.RespondWithError(c, http.StatusBadRequest, "Failed to read request body")
				return
			}
			body = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, body)
		if err != nil {
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create request")
			return
		}
		copyHeaders(req.Header, c.Request.Header)
		if requestID := c.GetString(middleware.RequestIDKey); requestID != "" {
			req.Header.Set(middleware.RequestIDHeader, requestID)
		}

		resp, err := client.Do(req)
		if err != nil {
			logger.Error("upstream request failed", slog.String("target", targetURL), slog.Any("error", err))
			middleware.RespondWithError(c, http.StatusBadGateway, "Service unavailable")
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadGateway, "Failed to read response")
			return
		}

		for key, values := range resp.Header {
			if hopHeaders[http.CanonicalHeaderKey(key)] {
				continue
			}
			c.Writer.Header().Del(key)
			for _, value := range values {
				c.Writer.Header().Add(key, value)
			}
		}
		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if hopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
