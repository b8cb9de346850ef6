package generation

import (
	"archive/zip"
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"resume-tailor/internal/applications"
	"resume-tailor/internal/events"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/storage/object"
	"resume-tailor/internal/shared/storage/object/local"
	"resume-tailor/resume/model"
)

const validReply = "Here is the tailored resume:\n```json\n" + `{
  "analysis": {
    "job_keywords": ["Go", "Kubernetes"],
    "required_qualifications": ["5+ years backend"],
    "preferred_qualifications": [],
    "candidate_strengths": ["Go services"],
    "gaps": ["Rust"],
    "tailoring_strategy": "Lead with platform work"
  },
  "resume": {
    "name": "Jane Doe",
    "contact": {"email": "jane@example.com", "phone": null, "location": "Berlin", "linkedin": null},
    "professional_summary": "Backend engineer.",
    "core_competencies": {"Languages": ["Go", "SQL"]},
    "experience": [{"company": "Acme", "location": "Remote", "title": "Engineer", "start_date": "2020", "end_date": "Present", "bullets": ["Built APIs"]}],
    "education": [],
    "certifications": [],
    "skills": ["Go"]
  }
}` + "\n```"

type recordingPublisher struct {
	mu       sync.Mutex
	statuses []string
}

func (p *recordingPublisher) Publish(ctx context.Context, evt events.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, evt.Status)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.statuses...)
}

type fixture struct {
	svc       *Service
	repo      *applications.MemoryRepo
	store     *local.Store
	publisher *recordingPublisher
	outDir    string
	requests  []llm.Request
	mu        sync.Mutex
}

func newFixture(t *testing.T, reply func(ctx context.Context, req llm.Request) (string, error)) *fixture {
	t.Helper()
	f := &fixture{
		repo:      applications.NewMemoryRepo(),
		store:     local.New(t.TempDir()),
		publisher: &recordingPublisher{},
		outDir:    filepath.Join(t.TempDir(), "generated"),
	}
	gateway := llm.GatewayFunc(func(ctx context.Context, req llm.Request) (string, error) {
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		return reply(ctx, req)
	})
	f.svc = NewService(f.repo, f.store, gateway, config.Config{Models: config.DefaultModels}, f.publisher, f.outDir)
	return f
}

func replyWith(text string) func(context.Context, llm.Request) (string, error) {
	return func(context.Context, llm.Request) (string, error) { return text, nil }
}

func (f *fixture) createApp(t *testing.T, aiModel string, files map[string]string) string {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	id := "app-" + strings.ReplaceAll(t.Name(), "/", "-")
	if err := f.repo.Create(ctx, applications.Application{
		ID:                   id,
		JobTitle:             "Platform Engineer",
		Company:              "Acme",
		JobDescription:       "Run Kubernetes with Go",
		AIModel:              aiModel,
		FormattingPreference: "one page",
		Status:               applications.StatusDraft,
		CreatedAt:            now,
		UpdatedAt:            now,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	// Attach in name order so prompts are deterministic.
	sort.Strings(names)
	for _, name := range names {
		stored, err := f.store.Put(ctx, object.Object{Namespace: "uploads", FileName: name, Body: strings.NewReader(files[name])})
		if err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		if err := f.repo.AddResume(ctx, id, applications.ResumeFile{
			ID:       "file-" + name,
			FilePath: stored.Key,
			FileName: name,
			FileType: extract.NormalizeContentType("", name, []byte(files[name])),
			FileSize: stored.Size,
		}); err != nil {
			t.Fatalf("attach %s: %v", name, err)
		}
	}
	return id
}

func (f *fixture) app(t *testing.T, id string) applications.Application {
	t.Helper()
	app, err := f.repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	return app
}

func TestGenerateEndToEnd(t *testing.T) {
	f := newFixture(t, replyWith(validReply))
	id := f.createApp(t, "sonar-pro", map[string]string{
		"a.txt": "Jane Doe\nGo engineer",
		"b.txt": "Jane Doe\nKubernetes operator",
	})

	outcome, err := f.svc.Generate(context.Background(), id)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	wantPath := filepath.Join(f.outDir, id+".docx")
	if outcome.OutputPath != wantPath || outcome.DownloadURL != "/api/applications/"+id+"/download" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.Analysis.TailoringStrategy != "Lead with platform work" {
		t.Fatalf("unexpected analysis %+v", outcome.Analysis)
	}

	zr, err := zip.OpenReader(wantPath)
	if err != nil {
		t.Fatalf("output is not a docx package: %v", err)
	}
	zr.Close()

	app := f.app(t, id)
	if app.Status != applications.StatusCompleted || app.GeneratedResumePath != wantPath {
		t.Fatalf("unexpected stored state %+v", app)
	}
	if diff := cmp.Diff(&outcome.Analysis, app.Analysis); diff != "" {
		t.Fatalf("stored analysis mismatch (-want +got):\n%s", diff)
	}

	if len(f.requests) != 1 {
		t.Fatalf("expected one LLM call, got %d", len(f.requests))
	}
	req := f.requests[0]
	if req.Provider != "perplexity" || req.Model != "sonar-pro" {
		t.Fatalf("unexpected routing %s/%s", req.Provider, req.Model)
	}
	if req.SystemInstruction != llm.SystemInstruction() {
		t.Fatal("expected fixed system instruction")
	}
	for _, want := range []string{
		"Run Kubernetes with Go",
		"Jane Doe\nGo engineer" + llm.ResumeSeparator + "Jane Doe\nKubernetes operator",
		"FORMATTING PREFERENCE: one page",
	} {
		if !strings.Contains(req.UserPrompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}

	if diff := cmp.Diff([]string{"processing", "completed"}, f.publisher.seen()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateNotFound(t *testing.T) {
	f := newFixture(t, replyWith(validReply))
	if _, err := f.svc.Generate(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGenerateWithoutResumesLeavesStatus(t *testing.T) {
	f := newFixture(t, replyWith(validReply))
	id := f.createApp(t, "sonar-pro", nil)

	if _, err := f.svc.Generate(context.Background(), id); !errors.Is(err, ErrNoInputResumes) {
		t.Fatalf("expected no input resumes, got %v", err)
	}
	if got := f.app(t, id).Status; got != applications.StatusDraft {
		t.Fatalf("expected status untouched, got %s", got)
	}
	if len(f.requests) != 0 || len(f.publisher.seen()) != 0 {
		t.Fatal("expected no LLM call and no events")
	}
}

func TestGenerateSkipsUnreadableFiles(t *testing.T) {
	f := newFixture(t, replyWith(validReply))
	id := f.createApp(t, "sonar-pro", map[string]string{
		"a.pdf": "not really a pdf",
		"b.txt": "Readable resume",
	})

	if _, err := f.svc.Generate(context.Background(), id); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	prompt := f.requests[0].UserPrompt
	if !strings.Contains(prompt, "CANDIDATE'S BASE RESUME(S):\nReadable resume\n") {
		t.Fatalf("expected only the readable resume in prompt:\n%s", prompt)
	}
	if strings.Contains(prompt, "---RESUME SEPARATOR---") {
		t.Fatal("skipped file must not contribute a separator")
	}
}

func TestGenerateNoParseableInput(t *testing.T) {
	f := newFixture(t, replyWith(validReply))
	id := f.createApp(t, "sonar-pro", map[string]string{
		"a.pdf":  "garbage",
		"b.docx": "also garbage",
		"c.txt":  "   \n",
	})

	if _, err := f.svc.Generate(context.Background(), id); !errors.Is(err, ErrNoParseableInput) {
		t.Fatalf("expected no parseable input, got %v", err)
	}
	if got := f.app(t, id).Status; got != applications.StatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}
	if len(f.requests) != 0 {
		t.Fatal("LLM must not be called")
	}
	if diff := cmp.Diff([]string{"processing", "failed"}, f.publisher.seen()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateRateLimitedKeepsPriorOutput(t *testing.T) {
	f := newFixture(t, func(context.Context, llm.Request) (string, error) {
		return "", errors.Join(llm.ErrRateLimited, errors.New("quota"))
	})
	id := f.createApp(t, "sonar-pro", map[string]string{"a.txt": "resume"})
	prevPath := "/old/output.docx"
	prevAnalysis := model.Analysis{Gaps: []string{"old"}}
	if err := f.repo.Update(context.Background(), id, applications.Patch{GeneratedResumePath: &prevPath, Analysis: &prevAnalysis}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := f.svc.Generate(context.Background(), id)
	if !errors.Is(err, llm.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	var failed *FailedRunError
	if !errors.As(err, &failed) {
		t.Fatalf("expected a failed run, got %T", err)
	}
	app := f.app(t, id)
	if app.Status != applications.StatusFailed {
		t.Fatalf("expected failed, got %s", app.Status)
	}
	if app.GeneratedResumePath != prevPath || app.Analysis == nil || app.Analysis.Gaps[0] != "old" {
		t.Fatalf("prior output must be untouched, got %+v", app)
	}
}

func TestGenerateMalformedReply(t *testing.T) {
	f := newFixture(t, replyWith("I could not produce JSON today."))
	id := f.createApp(t, "sonar-pro", map[string]string{"a.txt": "resume"})

	_, err := f.svc.Generate(context.Background(), id)
	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) || !errors.Is(err, ErrMalformedModelOutput) {
		t.Fatalf("expected malformed output, got %v", err)
	}
	if malformed.Message != "Could not parse JSON from response" {
		t.Fatalf("unexpected parser message %q", malformed.Message)
	}
	if got := f.app(t, id).Status; got != applications.StatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}
	if matches, _ := filepath.Glob(filepath.Join(f.outDir, "*")); len(matches) != 0 {
		t.Fatalf("nothing may be rendered, found %v", matches)
	}
}

func TestGenerateUnknownModel(t *testing.T) {
	f := newFixture(t, replyWith(validReply))
	id := f.createApp(t, "no-such-model", map[string]string{"a.txt": "resume"})

	if _, err := f.svc.Generate(context.Background(), id); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected unknown model, got %v", err)
	}
	if got := f.app(t, id).Status; got != applications.StatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}
}

func TestGenerateIgnoresCallerCancellationAfterProcessing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var sawErr atomic.Value
	f := newFixture(t, func(callCtx context.Context, req llm.Request) (string, error) {
		cancel()
		sawErr.Store(callCtx.Err() == nil)
		return validReply, nil
	})
	id := f.createApp(t, "sonar-pro", map[string]string{"a.txt": "resume"})

	if _, err := f.svc.Generate(ctx, id); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ok, _ := sawErr.Load().(bool); !ok {
		t.Fatal("LLM call context must be detached from the caller")
	}
	if got := f.app(t, id).Status; got != applications.StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
}

func TestGenerateCoalescesConcurrentCalls(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	f := newFixture(t, func(context.Context, llm.Request) (string, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return validReply, nil
	})
	id := f.createApp(t, "sonar-pro", map[string]string{"a.txt": "resume"})

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	start := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Generate(context.Background(), id)
			errs <- err
		}()
	}

	start()
	<-entered
	for i := 1; i < callers; i++ {
		start()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single LLM call, got %d", got)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"héllo", 2, "h…"},
		{"héllo", 3, "hé…"},
		{"日本語", 4, "日…"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.n); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}
