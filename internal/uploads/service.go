package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/shared/storage/object"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/shared/util"
)

const (
	// MaxUploadBytes caps a single uploaded file.
	MaxUploadBytes = 10 << 20

	// Namespace is the object-store prefix for uploaded resumes.
	Namespace = "uploads"
)

// AllowedExtensions lists the accepted file name extensions.
var AllowedExtensions = []string{".pdf", ".docx", ".doc", ".txt"}

var (
	ErrInvalidInput    = errors.New("invalid upload")
	ErrTooLarge        = errors.New("file size exceeds 10MB limit")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// File describes a stored upload.
type File struct {
	ID       string `json:"file_id"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

// Service validates uploads and writes them to the object store.
type Service struct {
	Store object.ObjectStore
}

// NewService constructs a Service.
func NewService(store object.ObjectStore) *Service {
	return &Service{Store: store}
}

// Save checks size and extension, normalizes the content type, and stores the file.
// FilePath in the result is the object-store key.
func (s *Service) Save(ctx context.Context, fileName, declaredType string, r io.Reader) (File, error) {
	name, err := util.SanitizeFileName(path.Base(strings.ReplaceAll(fileName, "\\", "/")))
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ext := strings.ToLower(path.Ext(name))
	if !allowedExtension(ext) {
		return File{}, ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return File{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return File{}, ErrTooLarge
	}

	contentType := extract.NormalizeContentType(declaredType, name, data)
	stored, err := s.Store.Put(ctx, object.Object{
		Namespace:   Namespace,
		FileName:    name,
		ContentType: contentType,
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		telemetry.Error("uploads.save.failed", map[string]any{
			"err":       err,
			"file_name": name,
			"size":      len(data),
		})
		return File{}, fmt.Errorf("save upload: %w", err)
	}

	file := File{
		ID:       strings.TrimSuffix(path.Base(stored.Key), path.Ext(stored.Key)),
		FileName: name,
		FilePath: stored.Key,
		FileType: contentType,
		FileSize: stored.Size,
	}
	telemetry.Info("uploads.saved", map[string]any{
		"file_id":   file.ID,
		"file_type": file.FileType,
		"size":      file.FileSize,
	})
	return file, nil
}

func allowedExtension(ext string) bool {
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
