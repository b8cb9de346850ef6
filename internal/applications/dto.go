package applications

import (
	"time"

	"resume-tailor/resume/model"
)

// ApplicationResponse is the outward-facing representation of an application.
type ApplicationResponse struct {
	ID                   string               `json:"id"`
	JobTitle             string               `json:"job_title"`
	Company              string               `json:"company"`
	JobDescription       string               `json:"job_description"`
	BaseResumes          []ResumeFileResponse `json:"base_resumes"`
	AIModel              string               `json:"ai_model"`
	FormattingPreference *string              `json:"formatting_preference"`
	Status               Status               `json:"status"`
	GeneratedResumePath  *string              `json:"generated_resume_path"`
	Analysis             *model.Analysis      `json:"analysis"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// ResumeFileResponse is the outward-facing representation of an attached resume.
type ResumeFileResponse struct {
	ID         string    `json:"id"`
	FilePath   string    `json:"file_path"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type createRequest struct {
	JobTitle             string `json:"job_title"`
	Company              string `json:"company"`
	JobDescription       string `json:"job_description"`
	AIModel              string `json:"ai_model"`
	FormattingPreference string `json:"formatting_preference"`
}

// updateRequest leaves a field unchanged when it is absent or null.
type updateRequest struct {
	JobTitle             *string `json:"job_title"`
	Company              *string `json:"company"`
	JobDescription       *string `json:"job_description"`
	AIModel              *string `json:"ai_model"`
	FormattingPreference *string `json:"formatting_preference"`
	Status               *string `json:"status"`
}

func (r updateRequest) patch() Patch {
	p := Patch{
		JobTitle:             r.JobTitle,
		Company:              r.Company,
		JobDescription:       r.JobDescription,
		AIModel:              r.AIModel,
		FormattingPreference: r.FormattingPreference,
	}
	if r.Status != nil {
		status := Status(*r.Status)
		p.Status = &status
	}
	return p
}

func toResponse(app Application) ApplicationResponse {
	resumes := make([]ResumeFileResponse, 0, len(app.BaseResumes))
	for _, f := range app.BaseResumes {
		resumes = append(resumes, toResumeResponse(f))
	}
	return ApplicationResponse{
		ID:                   app.ID,
		JobTitle:             app.JobTitle,
		Company:              app.Company,
		JobDescription:       app.JobDescription,
		BaseResumes:          resumes,
		AIModel:              app.AIModel,
		FormattingPreference: optional(app.FormattingPreference),
		Status:               app.Status,
		GeneratedResumePath:  optional(app.GeneratedResumePath),
		Analysis:             app.Analysis,
		CreatedAt:            app.CreatedAt,
		UpdatedAt:            app.UpdatedAt,
	}
}

func toResumeResponse(f ResumeFile) ResumeFileResponse {
	return ResumeFileResponse{
		ID:         f.ID,
		FilePath:   f.FilePath,
		FileName:   f.FileName,
		FileType:   f.FileType,
		FileSize:   f.FileSize,
		UploadedAt: f.UploadedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
