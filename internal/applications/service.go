package applications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/shared/util"
	"resume-tailor/internal/uploads"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var (
	ErrNotGenerated  = errors.New("no resume generated yet")
	ErrOutputMissing = errors.New("resume file not found")
)

// Uploader stores an uploaded file and reports where it went.
type Uploader interface {
	Save(ctx context.Context, fileName, contentType string, r io.Reader) (uploads.File, error)
}

// CreateInput carries the fields accepted when creating an application.
type CreateInput struct {
	JobTitle             string
	Company              string
	JobDescription       string
	AIModel              string
	FormattingPreference string
}

// Download is a generated resume ready to be sent to the client.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Service contains business logic for applications.
type Service struct {
	Repo    Repo
	Uploads Uploader
	now     func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, uploader Uploader) *Service {
	return &Service{Repo: repo, Uploads: uploader}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// Create validates input and stores a new draft application.
func (s *Service) Create(ctx context.Context, in CreateInput) (Application, error) {
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.Company = strings.TrimSpace(in.Company)
	in.AIModel = strings.TrimSpace(in.AIModel)
	in.FormattingPreference = strings.TrimSpace(in.FormattingPreference)

	required := []struct{ field, value string }{
		{"job_title", in.JobTitle},
		{"company", in.Company},
		{"job_description", strings.TrimSpace(in.JobDescription)},
		{"ai_model", in.AIModel},
	}
	for _, r := range required {
		if r.value == "" {
			return Application{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, r.field)
		}
	}

	now := s.clock()
	app := Application{
		ID:                   uuid.NewString(),
		JobTitle:             in.JobTitle,
		Company:              in.Company,
		JobDescription:       in.JobDescription,
		AIModel:              in.AIModel,
		FormattingPreference: in.FormattingPreference,
		Status:               StatusDraft,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.Repo.Create(ctx, app); err != nil {
		return Application{}, err
	}
	telemetry.Info("application.created", map[string]any{
		"application_id": app.ID,
		"ai_model":       app.AIModel,
	})
	return app, nil
}

// List returns all applications, newest first.
func (s *Service) List(ctx context.Context) ([]Application, error) {
	return s.Repo.GetAll(ctx)
}

// Get returns one application.
func (s *Service) Get(ctx context.Context, id string) (Application, error) {
	if strings.TrimSpace(id) == "" {
		return Application{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// Update applies a partial update and returns the stored result.
// An empty patch leaves the record, including updated_at, untouched.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Application, error) {
	if p.Status != nil && !p.Status.Valid() {
		return Application{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *p.Status)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return Application{}, err
	}
	if !p.Empty() {
		if err := s.Repo.Update(ctx, id, p); err != nil {
			return Application{}, err
		}
	}
	return s.Repo.GetByID(ctx, id)
}

// Delete removes an application and its attached resume records.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	telemetry.Info("application.deleted", map[string]any{"application_id": id})
	return nil
}

// AddResume stores an uploaded file and attaches it to the application.
func (s *Service) AddResume(ctx context.Context, id, fileName, contentType string, r io.Reader) (ResumeFile, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return ResumeFile{}, err
	}
	if s.Uploads == nil {
		return ResumeFile{}, errors.New("uploads not configured")
	}
	stored, err := s.Uploads.Save(ctx, fileName, contentType, r)
	if err != nil {
		return ResumeFile{}, err
	}

	file := ResumeFile{
		ID:            uuid.NewString(),
		ApplicationID: id,
		FilePath:      stored.FilePath,
		FileName:      stored.FileName,
		FileType:      stored.FileType,
		FileSize:      stored.FileSize,
		UploadedAt:    s.clock(),
	}
	if err := s.Repo.AddResume(ctx, id, file); err != nil {
		return ResumeFile{}, err
	}
	telemetry.Info("application.resume_added", map[string]any{
		"application_id": id,
		"file_type":      file.FileType,
		"file_size":      file.FileSize,
	})
	return file, nil
}

// Download loads the generated document for an application.
func (s *Service) Download(ctx context.Context, id string) (Download, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return Download{}, err
	}
	if strings.TrimSpace(app.GeneratedResumePath) == "" {
		return Download{}, ErrNotGenerated
	}
	data, err := os.ReadFile(app.GeneratedResumePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Download{}, ErrOutputMissing
		}
		return Download{}, fmt.Errorf("read generated resume: %w", err)
	}
	return Download{
		FileName:    DownloadFileName(app),
		ContentType: docxContentType,
		Data:        data,
	}, nil
}

// DownloadFileName is "{job_title}_{company}_Resume.docx" with path separators removed.
func DownloadFileName(app Application) string {
	name, err := util.SanitizeFileName(fmt.Sprintf("%s_%s_Resume.docx", app.JobTitle, app.Company))
	if err != nil {
		return "Resume.docx"
	}
	return name
}
