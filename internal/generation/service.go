package generation

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"resume-tailor/internal/applications"
	"resume-tailor/internal/events"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/storage/object"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/resume/model"
	"resume-tailor/resume/parse"
	"resume-tailor/resume/render"
)

// rawLogLimit caps how much of an unusable model reply is logged.
const rawLogLimit = 2000

// ModelCatalog resolves a public model id to its provider and API model name.
type ModelCatalog interface {
	LookupModel(modelID string) (config.ModelConfig, error)
}

// ParsedResume is the extracted text of one attached file.
type ParsedResume struct {
	FileName string
	Text     string
}

// Outcome describes a completed generation run.
type Outcome struct {
	ApplicationID string
	OutputPath    string
	DownloadURL   string
	Analysis      model.Analysis
}

// Service runs the tailoring pipeline for stored applications.
type Service struct {
	Apps         applications.Repo
	Store        object.ObjectStore
	LLM          llm.Gateway
	Models       ModelCatalog
	Events       events.Publisher
	GeneratedDir string

	group singleflight.Group
	now   func() time.Time
}

// NewService constructs a Service. A nil publisher discards events.
func NewService(apps applications.Repo, store object.ObjectStore, gateway llm.Gateway, models ModelCatalog, publisher events.Publisher, generatedDir string) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		Apps:         apps,
		Store:        store,
		LLM:          gateway,
		Models:       models,
		Events:       publisher,
		GeneratedDir: generatedDir,
	}
}

// DownloadURL is the API path serving an application's generated resume.
func DownloadURL(applicationID string) string {
	return "/api/applications/" + applicationID + "/download"
}

// Generate runs the pipeline for one application. Concurrent calls for the
// same id share a single run and its result.
func (s *Service) Generate(ctx context.Context, applicationID string) (Outcome, error) {
	v, err, shared := s.group.Do(applicationID, func() (any, error) {
		return s.run(ctx, applicationID)
	})
	if shared {
		telemetry.Info("generation.coalesced", map[string]any{"application_id": applicationID})
	}
	if err != nil {
		return Outcome{}, err
	}
	return v.(Outcome), nil
}

func (s *Service) run(ctx context.Context, applicationID string) (Outcome, error) {
	app, err := s.Apps.GetByID(ctx, applicationID)
	if err != nil {
		return Outcome{}, err
	}
	if len(app.BaseResumes) == 0 {
		return Outcome{}, ErrNoInputResumes
	}

	if err := s.Apps.Update(ctx, app.ID, applications.StatusPatch(applications.StatusProcessing)); err != nil {
		return Outcome{}, fmt.Errorf("mark processing: %w", err)
	}
	// The run finishes even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	start := s.clock()
	metrics.IncGenerationStarted()
	s.publish(ctx, events.StatusChanged{ApplicationID: app.ID, Status: string(applications.StatusProcessing)})
	telemetry.Info("generation.started", map[string]any{
		"application_id": app.ID,
		"ai_model":       app.AIModel,
		"resumes":        len(app.BaseResumes),
	})

	outcome, err := s.pipeline(ctx, app)
	elapsed := s.clock().Sub(start)
	metrics.ObserveGenerationDurationMs(float64(elapsed.Milliseconds()))
	if err != nil {
		s.fail(ctx, app.ID, err)
		return Outcome{}, &FailedRunError{Err: err}
	}

	metrics.IncGenerationCompleted()
	s.publish(ctx, events.StatusChanged{
		ApplicationID: app.ID,
		Status:        string(applications.StatusCompleted),
		DownloadURL:   outcome.DownloadURL,
	})
	telemetry.Info("generation.completed", map[string]any{
		"application_id": app.ID,
		"output_path":    outcome.OutputPath,
		"duration_ms":    elapsed.Milliseconds(),
	})
	return outcome, nil
}

func (s *Service) pipeline(ctx context.Context, app applications.Application) (Outcome, error) {
	parsed := s.extractAll(ctx, app)
	if len(parsed) == 0 {
		return Outcome{}, ErrNoParseableInput
	}

	m, err := s.Models.LookupModel(app.AIModel)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownModel, app.AIModel)
	}

	texts := make([]string, 0, len(parsed))
	for _, p := range parsed {
		texts = append(texts, p.Text)
	}
	raw, err := s.LLM.Send(ctx, llm.Request{
		Provider:          m.Provider,
		Model:             m.APIModelName,
		SystemInstruction: llm.SystemInstruction(),
		UserPrompt:        llm.BuildUserPrompt(app.JobDescription, texts, app.FormattingPreference),
	})
	if err != nil {
		return Outcome{}, err
	}

	reply := parse.Response(raw)
	if reply.Failed() {
		telemetry.Error("generation.reply_unusable", map[string]any{
			"application_id": app.ID,
			"error":          reply.Error,
			"raw":            truncate(reply.Raw, rawLogLimit),
		})
		return Outcome{}, &MalformedOutputError{Message: reply.Error}
	}

	outputPath, err := render.WriteFile(reply.Result.Resume, filepath.Join(s.GeneratedDir, app.ID+".docx"))
	if err != nil {
		return Outcome{}, err
	}

	analysis := reply.Result.Analysis
	completed := applications.StatusCompleted
	if err := s.Apps.Update(ctx, app.ID, applications.Patch{
		Status:              &completed,
		GeneratedResumePath: &outputPath,
		Analysis:            &analysis,
	}); err != nil {
		return Outcome{}, fmt.Errorf("mark completed: %w", err)
	}

	return Outcome{
		ApplicationID: app.ID,
		OutputPath:    outputPath,
		DownloadURL:   DownloadURL(app.ID),
		Analysis:      analysis,
	}, nil
}

// extractAll returns the text of every attached file that could be read, in attachment order.
func (s *Service) extractAll(ctx context.Context, app applications.Application) []ParsedResume {
	out := make([]ParsedResume, 0, len(app.BaseResumes))
	for _, f := range app.BaseResumes {
		text, err := s.extractOne(ctx, f)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyText
		}
		if err != nil {
			metrics.IncExtractionSkipped()
			telemetry.Warn("generation.resume_skipped", map[string]any{
				"application_id": app.ID,
				"file_name":      f.FileName,
				"file_type":      f.FileType,
				"err":            err,
			})
			continue
		}
		out = append(out, ParsedResume{FileName: f.FileName, Text: text})
	}
	return out
}

func (s *Service) extractOne(ctx context.Context, f applications.ResumeFile) (string, error) {
	rc, err := s.Store.Open(ctx, f.FilePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.FilePath, err)
	}
	defer func(c io.Closer) { _ = c.Close() }(rc)
	return extract.Reader(ctx, rc, f.FileType)
}

// fail records the failed status. Output fields from earlier runs stay as they are.
func (s *Service) fail(ctx context.Context, applicationID string, cause error) {
	metrics.IncGenerationFailed()
	if err := s.Apps.Update(ctx, applicationID, applications.StatusPatch(applications.StatusFailed)); err != nil {
		telemetry.Error("generation.mark_failed", map[string]any{
			"application_id": applicationID,
			"err":            err,
		})
	}
	s.publish(ctx, events.StatusChanged{
		ApplicationID: applicationID,
		Status:        string(applications.StatusFailed),
		Message:       cause.Error(),
	})
	telemetry.Warn("generation.failed", map[string]any{
		"application_id": applicationID,
		"err":            cause,
	})
}

func (s *Service) publish(ctx context.Context, evt events.StatusChanged) {
	if s.Events == nil {
		return
	}
	evt.At = s.clock()
	if err := s.Events.Publish(ctx, evt); err != nil {
		telemetry.Warn("generation.event_dropped", map[string]any{
			"application_id": evt.ApplicationID,
			"status":         evt.Status,
			"err":            err,
		})
	}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
