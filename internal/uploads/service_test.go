package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(local.New(t.TempDir()))
}

func TestSaveStoresUnderNamespace(t *testing.T) {
	svc := newTestService(t)
	file, err := svc.Save(context.Background(), "Jane Resume.TXT", "text/plain; charset=utf-8", strings.NewReader("Jane Doe"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(file.FilePath, Namespace+"/") || !strings.HasSuffix(file.FilePath, ".txt") {
		t.Fatalf("unexpected key %q", file.FilePath)
	}
	if file.ID == "" || strings.Contains(file.ID, ".") || strings.Contains(file.ID, "/") {
		t.Fatalf("unexpected id %q", file.ID)
	}
	if file.FileName != "Jane Resume.TXT" || file.FileSize != int64(len("Jane Doe")) {
		t.Fatalf("unexpected file %+v", file)
	}
	if file.FileType != extract.TypePlainText {
		t.Fatalf("expected normalized text/plain, got %q", file.FileType)
	}

	rc, err := svc.Store.Open(context.Background(), file.FilePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "Jane Doe" {
		t.Fatalf("unexpected stored content %q", data)
	}
}

func TestSaveResolvesOctetStreamByExtension(t *testing.T) {
	svc := newTestService(t)
	file, err := svc.Save(context.Background(), "cv.pdf", "application/octet-stream", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if file.FileType != extract.TypePDF {
		t.Fatalf("expected pdf, got %q", file.FileType)
	}
}

func TestSaveRejectsExtension(t *testing.T) {
	svc := newTestService(t)
	for _, name := range []string{"resume.exe", "resume", "notes.md"} {
		if _, err := svc.Save(context.Background(), name, "", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("%s: expected unsupported type, got %v", name, err)
		}
	}
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	svc := newTestService(t)
	big := bytes.Repeat([]byte("a"), MaxUploadBytes+1)
	if _, err := svc.Save(context.Background(), "big.txt", "text/plain", bytes.NewReader(big)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}
}

func TestSaveAcceptsExactLimit(t *testing.T) {
	svc := newTestService(t)
	exact := bytes.Repeat([]byte("a"), MaxUploadBytes)
	file, err := svc.Save(context.Background(), "max.txt", "text/plain", bytes.NewReader(exact))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if file.FileSize != MaxUploadBytes {
		t.Fatalf("unexpected size %d", file.FileSize)
	}
}

func TestSaveRejectsTraversalName(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Save(context.Background(), "..", "", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func multipartRequest(t *testing.T, target, fileName, contentType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api"))
	return r
}

func TestUploadHandler(t *testing.T) {
	router := newTestRouter(newTestService(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/upload", "resume.txt", "text/plain", []byte("hello")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, key := range []string{`"file_id"`, `"file_name":"resume.txt"`, `"file_path":"uploads/`, `"file_type":"text/plain"`, `"file_size":5`} {
		if !strings.Contains(rec.Body.String(), key) {
			t.Fatalf("expected %s in %s", key, rec.Body.String())
		}
	}
}

func TestUploadHandlerRejectsExtension(t *testing.T) {
	router := newTestRouter(newTestService(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/upload", "resume.png", "image/png", []byte("x")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Allowed: .pdf, .docx, .doc, .txt") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestUploadHandlerRequiresFile(t *testing.T) {
	router := newTestRouter(newTestService(t))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"validation_error"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
