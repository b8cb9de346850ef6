package applications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"resume-tailor/internal/shared/telemetry"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheet     = "Applications"
)

var exportHeaders = []string{
	"Created",
	"Job Title",
	"Company",
	"AI Model",
	"Status",
	"Resumes",
	"Job Keywords",
	"Gaps",
	"Generated Resume",
	"Updated",
}

// ExportXLSX returns a workbook with one row per application, newest first.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	apps, err := s.Repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
		_ = f.SetCellStyle(exportSheet, "A1", last, style)
	}

	for i, app := range apps {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}

		var keywords, gaps string
		if app.Analysis != nil {
			keywords = strings.Join(app.Analysis.JobKeywords, ", ")
			gaps = strings.Join(app.Analysis.Gaps, ", ")
		}

		write(1, app.CreatedAt.UTC().Format(time.RFC3339))
		write(2, app.JobTitle)
		write(3, app.Company)
		write(4, app.AIModel)
		write(5, string(app.Status))
		write(6, len(app.BaseResumes))
		write(7, keywords)
		write(8, gaps)
		write(9, app.GeneratedResumePath)
		write(10, app.UpdatedAt.UTC().Format(time.RFC3339))
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 22)
	_ = f.SetColWidth(exportSheet, "B", "C", 28)
	_ = f.SetColWidth(exportSheet, "D", "F", 14)
	_ = f.SetColWidth(exportSheet, "G", "H", 48)
	_ = f.SetColWidth(exportSheet, "I", "I", 40)
	_ = f.SetColWidth(exportSheet, "J", "J", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	telemetry.Info("export.xlsx.ok", map[string]any{
		"rows":       len(apps),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return buf.Bytes(), nil
}
