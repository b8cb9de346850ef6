package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-tailor/internal/shared/storage/db"
	"resume-tailor/resume/model"
)

// timeLayout is RFC 3339 with a fixed nine-digit fraction so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLRepo implements Repo over database/sql for PostgreSQL and SQLite.
// Queries are written with $N placeholders, each used once and in ascending order.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
	now     func() time.Time
}

// NewSQLRepo constructs a SQLRepo for the given connection.
func NewSQLRepo(conn *sql.DB, dialect db.Dialect) *SQLRepo {
	return &SQLRepo{DB: conn, Dialect: dialect}
}

func (r *SQLRepo) rebind(query string) string {
	return r.Dialect.Rebind(query)
}

func (r *SQLRepo) clock() time.Time {
	if r.now != nil {
		return r.now().UTC()
	}
	return time.Now().UTC()
}

// Create inserts a new application row.
func (r *SQLRepo) Create(ctx context.Context, app Application) error {
	const query = `
INSERT INTO applications (
    id,
    job_title,
    company,
    job_description,
    ai_model,
    formatting_preference,
    status,
    generated_resume_path,
    analysis,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	status := app.Status
	if status == "" {
		status = StatusDraft
	}
	analysis, err := encodeAnalysis(app.Analysis)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		r.rebind(query),
		app.ID,
		app.JobTitle,
		app.Company,
		app.JobDescription,
		app.AIModel,
		nullString(app.FormattingPreference),
		string(status),
		nullString(app.GeneratedResumePath),
		analysis,
		formatTime(app.CreatedAt),
		formatTime(app.UpdatedAt),
	)
	return err
}

const selectApplication = `
SELECT id, job_title, company, job_description, ai_model, formatting_preference, status, generated_resume_path, analysis, created_at, updated_at
FROM applications`

const selectResume = `
SELECT id, application_id, file_path, file_name, file_type, file_size, uploaded_at
FROM base_resumes`

// GetAll lists applications newest first, each with its attached resumes.
func (r *SQLRepo) GetAll(ctx context.Context) ([]Application, error) {
	rows, err := r.DB.QueryContext(ctx, r.rebind(selectApplication+`
ORDER BY created_at DESC`))
	if err != nil {
		return nil, err
	}
	var out []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []Application{}, nil
	}

	resumes, err := r.queryResumes(ctx, selectResume+`
ORDER BY uploaded_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	byApp := make(map[string][]ResumeFile, len(out))
	for _, f := range resumes {
		byApp[f.ApplicationID] = append(byApp[f.ApplicationID], f)
	}
	for i := range out {
		out[i].BaseResumes = byApp[out[i].ID]
	}
	return out, nil
}

// GetByID fetches one application with its attached resumes.
func (r *SQLRepo) GetByID(ctx context.Context, id string) (Application, error) {
	row := r.DB.QueryRowContext(ctx, r.rebind(selectApplication+`
WHERE id = $1`), id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}

	resumes, err := r.queryResumes(ctx, selectResume+`
WHERE application_id = $1
ORDER BY uploaded_at ASC, id ASC`, id)
	if err != nil {
		return Application{}, err
	}
	app.BaseResumes = resumes
	return app, nil
}

// Update writes the fields set in p and bumps updated_at.
func (r *SQLRepo) Update(ctx context.Context, id string, p Patch) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.JobTitle != nil {
		set("job_title", *p.JobTitle)
	}
	if p.Company != nil {
		set("company", *p.Company)
	}
	if p.JobDescription != nil {
		set("job_description", *p.JobDescription)
	}
	if p.AIModel != nil {
		set("ai_model", *p.AIModel)
	}
	if p.FormattingPreference != nil {
		set("formatting_preference", nullString(*p.FormattingPreference))
	}
	if p.Status != nil {
		set("status", string(*p.Status))
	}
	if p.GeneratedResumePath != nil {
		set("generated_resume_path", nullString(*p.GeneratedResumePath))
	}
	if p.Analysis != nil {
		analysis, err := encodeAnalysis(p.Analysis)
		if err != nil {
			return err
		}
		set("analysis", analysis)
	}
	set("updated_at", formatTime(r.clock()))
	args = append(args, id)

	query := fmt.Sprintf("UPDATE applications SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.DB.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes an application; base_resumes rows go with it via ON DELETE CASCADE.
func (r *SQLRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM applications WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, r.rebind(query), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// AddResume inserts attached file metadata.
func (r *SQLRepo) AddResume(ctx context.Context, applicationID string, file ResumeFile) error {
	const query = `
INSERT INTO base_resumes (
    id,
    application_id,
    file_path,
    file_name,
    file_type,
    file_size,
    uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	uploadedAt := file.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = r.clock()
	}
	_, err := r.DB.ExecContext(
		ctx,
		r.rebind(query),
		file.ID,
		applicationID,
		file.FilePath,
		file.FileName,
		file.FileType,
		file.FileSize,
		formatTime(uploadedAt),
	)
	return err
}

func (r *SQLRepo) queryResumes(ctx context.Context, query string, args ...any) ([]ResumeFile, error) {
	rows, err := r.DB.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResumeFile
	for rows.Next() {
		var f ResumeFile
		var uploadedAt string
		if err := rows.Scan(
			&f.ID,
			&f.ApplicationID,
			&f.FilePath,
			&f.FileName,
			&f.FileType,
			&f.FileSize,
			&uploadedAt,
		); err != nil {
			return nil, err
		}
		if f.UploadedAt, err = parseTime(uploadedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var status string
	var formattingPreference sql.NullString
	var generatedPath sql.NullString
	var analysis sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(
		&app.ID,
		&app.JobTitle,
		&app.Company,
		&app.JobDescription,
		&app.AIModel,
		&formattingPreference,
		&status,
		&generatedPath,
		&analysis,
		&createdAt,
		&updatedAt,
	); err != nil {
		return Application{}, err
	}
	app.Status = Status(status)
	if formattingPreference.Valid {
		app.FormattingPreference = formattingPreference.String
	}
	if generatedPath.Valid {
		app.GeneratedResumePath = generatedPath.String
	}
	if analysis.Valid && strings.TrimSpace(analysis.String) != "" {
		var decoded model.Analysis
		if err := json.Unmarshal([]byte(analysis.String), &decoded); err != nil {
			return Application{}, fmt.Errorf("decode analysis for %s: %w", app.ID, err)
		}
		app.Analysis = &decoded
	}
	var err error
	if app.CreatedAt, err = parseTime(createdAt); err != nil {
		return Application{}, err
	}
	if app.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Application{}, err
	}
	return app, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeAnalysis(a *model.Analysis) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode analysis: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}

var _ Repo = (*SQLRepo)(nil)
