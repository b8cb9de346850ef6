package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"resume-tailor/internal/shared/telemetry"
)

func TestErrorWritesEnvelopeAndLogsTags(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	defer telemetry.SetLogger(zap.New(core))()

	r := gin.New()
	r.GET("/api/applications/:id", func(c *gin.Context) {
		c.Set(RequestIDKey, "req-1")
		TagApplication(c, c.Param("id"))
		Error(c, http.StatusNotFound, "not_found", "Application not found", nil)
	})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/applications/app-7", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != `{"error":{"code":"not_found","message":"Application not found"}}` {
		t.Fatalf("unexpected body %s", got)
	}
	entries := logs.FilterMessage("http.error").All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warn entry, got %+v", entries)
	}
	fields := entries[0].ContextMap()
	if fields["application_id"] != "app-7" || fields["request_id"] != "req-1" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestServerErrorsLogAtErrorLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	defer telemetry.SetLogger(zap.New(core))()

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Error(c, http.StatusInternalServerError, "internal_error", "Failed", map[string]string{"hint": "retry"})
	})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	var body struct {
		Error Problem `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Details == nil {
		t.Fatal("expected details in body")
	}
	if entries := logs.FilterMessage("http.error").All(); len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected one error entry, got %+v", entries)
	}
}

func TestAttachmentDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := map[string]string{
		"Platform Engineer_Acme_Resume.docx": `attachment; filename="Platform Engineer_Acme_Resume.docx"`,
		"applications.xlsx":                  `attachment; filename=applications.xlsx`,
		"Ingénieur_Resume.docx":              `attachment; filename*=utf-8''Ing%C3%A9nieur_Resume.docx`,
	}
	for name, want := range tests {
		r := gin.New()
		r.GET("/d", func(c *gin.Context) { Attachment(c, "application/octet-stream", name, []byte("x")) })
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/d", nil))
		if got := resp.Header().Get("Content-Disposition"); got != want {
			t.Fatalf("%s: got %q, want %q", name, got, want)
		}
	}
}

func TestTagTransition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	TagTransition(c, "", "completed")
	if got := LogFields(c)["status_transition"]; got != "->completed" {
		t.Fatalf("unexpected transition %v", got)
	}
	TagTransition(c, "processing", "failed")
	if got := LogFields(c)["status_transition"]; got != "processing->failed" {
		t.Fatalf("unexpected transition %v", got)
	}
}
