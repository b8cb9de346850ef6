package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resume-tailor/internal/shared/storage/object"
)

func TestPutAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	content := "Jane Doe\nGo engineer"

	stored, err := store.Put(ctx, object.Object{Namespace: "uploads", FileName: "cv.txt", Body: strings.NewReader(content)})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if stored.Size != int64(len(content)) {
		t.Fatalf("unexpected size %d", stored.Size)
	}
	if !strings.HasPrefix(stored.ContentType, "text/plain") {
		t.Fatalf("unexpected content type %q", stored.ContentType)
	}
	if !strings.HasPrefix(stored.Key, "uploads/") || !strings.HasSuffix(stored.Key, ".txt") {
		t.Fatalf("unexpected key %s", stored.Key)
	}

	rc, err := store.Open(ctx, stored.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != content {
		t.Fatalf("unexpected content %q", data)
	}

	path, err := store.Path(stored.Key)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestPutDocxUsesExtensionType(t *testing.T) {
	store := New(t.TempDir())
	stored, err := store.Put(context.Background(), object.Object{
		Namespace: "uploads",
		FileName:  "resume.docx",
		Body:      strings.NewReader("PK\x03\x04rest-of-zip"),
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if stored.ContentType != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Fatalf("unexpected content type %q", stored.ContentType)
	}
}

func TestPutCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(t.TempDir()).Put(ctx, object.Object{Namespace: "uploads", FileName: "a.txt", Body: strings.NewReader("x")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestOpenMissingKey(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Open(context.Background(), "uploads/missing.pdf")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	for _, key := range []string{"../secret", "/etc/passwd", "."} {
		if _, err := store.Open(context.Background(), key); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}
