package applications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	data  map[string]Application
	order []string // insertion order, used to break created_at ties
	now   func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Application),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new application.
func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[app.ID]; exists {
		return ErrInvalidInput
	}
	app.BaseResumes = append([]ResumeFile(nil), app.BaseResumes...)
	r.data[app.ID] = app
	r.order = append(r.order, app.ID)
	return nil
}

// GetAll returns applications newest first.
func (r *MemoryRepo) GetAll(ctx context.Context) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Application, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if app, ok := r.data[r.order[i]]; ok {
			out = append(out, copyApplication(app))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetByID returns one application.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.data[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return copyApplication(app), nil
}

// Update applies a partial update.
func (r *MemoryRepo) Update(ctx context.Context, id string, p Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	app.apply(p, r.now())
	r.data[id] = app
	return nil
}

// Delete removes an application together with its attached resumes.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddResume attaches file metadata to an application.
func (r *MemoryRepo) AddResume(ctx context.Context, applicationID string, file ResumeFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.data[applicationID]
	if !ok {
		return ErrNotFound
	}
	file.ApplicationID = applicationID
	app.BaseResumes = append(app.BaseResumes, file)
	r.data[applicationID] = app
	return nil
}

func copyApplication(app Application) Application {
	app.BaseResumes = append([]ResumeFile(nil), app.BaseResumes...)
	if app.Analysis != nil {
		analysis := *app.Analysis
		app.Analysis = &analysis
	}
	return app
}

var _ Repo = (*MemoryRepo)(nil)
