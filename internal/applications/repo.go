package applications

import "context"

// Repo defines persistence operations for applications and their attached resumes.
type Repo interface {
	Create(ctx context.Context, app Application) error
	// GetAll returns every application, newest first, with attached resumes.
	GetAll(ctx context.Context) ([]Application, error)
	GetByID(ctx context.Context, id string) (Application, error)
	// Update applies p and always bumps updated_at.
	Update(ctx context.Context, id string, p Patch) error
	// Delete removes the application and its attached resumes.
	Delete(ctx context.Context, id string) error
	AddResume(ctx context.Context, applicationID string, file ResumeFile) error
}
