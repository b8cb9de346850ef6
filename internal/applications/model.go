package applications

import (
	"time"

	"resume-tailor/resume/model"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// ResumeFile is an uploaded candidate resume attached to an application.
type ResumeFile struct {
	ID            string
	ApplicationID string
	FilePath      string
	FileName      string
	FileType      string
	FileSize      int64
	UploadedAt    time.Time
}

// Application is one job-tailoring request and its generation state.
type Application struct {
	ID                   string
	JobTitle             string
	Company              string
	JobDescription       string
	AIModel              string
	FormattingPreference string
	Status               Status
	GeneratedResumePath  string
	Analysis             *model.Analysis
	BaseResumes          []ResumeFile
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Patch lists the fields an Update changes. Nil fields are left as they are.
type Patch struct {
	JobTitle             *string
	Company              *string
	JobDescription       *string
	AIModel              *string
	FormattingPreference *string
	Status               *Status
	GeneratedResumePath  *string
	Analysis             *model.Analysis
}

// Empty reports whether the patch changes nothing besides updated_at.
func (p Patch) Empty() bool {
	return p.JobTitle == nil &&
		p.Company == nil &&
		p.JobDescription == nil &&
		p.AIModel == nil &&
		p.FormattingPreference == nil &&
		p.Status == nil &&
		p.GeneratedResumePath == nil &&
		p.Analysis == nil
}

// StatusPatch is shorthand for a patch that only moves the status.
func StatusPatch(status Status) Patch {
	return Patch{Status: &status}
}

func (a *Application) apply(p Patch, now time.Time) {
	if p.JobTitle != nil {
		a.JobTitle = *p.JobTitle
	}
	if p.Company != nil {
		a.Company = *p.Company
	}
	if p.JobDescription != nil {
		a.JobDescription = *p.JobDescription
	}
	if p.AIModel != nil {
		a.AIModel = *p.AIModel
	}
	if p.FormattingPreference != nil {
		a.FormattingPreference = *p.FormattingPreference
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.GeneratedResumePath != nil {
		a.GeneratedResumePath = *p.GeneratedResumePath
	}
	if p.Analysis != nil {
		analysis := *p.Analysis
		a.Analysis = &analysis
	}
	a.UpdatedAt = now
}
