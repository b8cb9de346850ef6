package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/shared/telemetry"
)

func TestLoggingCarriesApplicationTags(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	defer telemetry.SetLogger(zap.New(core))()

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.POST("/api/applications/:id/generate", func(c *gin.Context) {
		respond.TagApplication(c, c.Param("id"))
		respond.TagTransition(c, "processing", "completed")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/applications/app-1/generate", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	entries := logs.FilterMessage("request.complete").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request.complete entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	want := map[string]any{
		"request_id":        "req-123",
		"application_id":    "app-1",
		"status_transition": "processing->completed",
		"route":             "/api/applications/:id/generate",
		"status":            int64(http.StatusOK),
	}
	for key, v := range want {
		if fields[key] != v {
			t.Fatalf("%s = %v (%T), want %v", key, fields[key], fields[key], v)
		}
	}
	if _, ok := fields["duration_ms"]; !ok {
		t.Fatal("missing duration_ms")
	}
	if resp.Header().Get("X-Request-Id") != "req-123" {
		t.Fatal("expected request id echoed")
	}
}

func TestLoggingSkipsHealthyProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	defer telemetry.SetLogger(zap.New(core))()

	status := http.StatusOK
	router := gin.New()
	router.Use(RequestID(), Logging())
	router.GET("/api/health", func(c *gin.Context) { c.Status(status) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if n := logs.FilterMessage("request.complete").Len(); n != 0 {
		t.Fatalf("expected healthy probe to be quiet, got %d entries", n)
	}

	status = http.StatusServiceUnavailable
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if n := logs.FilterMessage("request.complete").Len(); n != 1 {
		t.Fatalf("expected failing probe to be logged, got %d entries", n)
	}
}

func TestRequestIDReplacesUnusableHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, respond.RequestID(c)) })

	for _, header := range []string{"", "has space", string(make([]byte, maxRequestIDBytes+1))} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if header != "" {
			req.Header.Set("X-Request-Id", header)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		got := resp.Header().Get("X-Request-Id")
		if got == "" || got == header || resp.Body.String() != got {
			t.Fatalf("header %q: unexpected request id %q (body %q)", header, got, resp.Body.String())
		}
	}
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)
	defer telemetry.SetLogger(zap.New(core))()

	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/api/applications/:id", func(c *gin.Context) {
		respond.TagApplication(c, c.Param("id"))
		panic("kaboom")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/applications/app-9", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var body struct {
		Error respond.Problem `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "internal_error" {
		t.Fatalf("unexpected code %q", body.Error.Code)
	}
	entries := logs.FilterMessage("request.panic").All()
	if len(entries) != 1 || entries[0].ContextMap()["application_id"] != "app-9" {
		t.Fatalf("expected tagged panic log, got %+v", entries)
	}
}
