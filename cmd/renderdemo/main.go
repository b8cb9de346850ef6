package main

import (
	"archive/zip"
	"encoding/json"
	"encoding/xml"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"resume-tailor/resume/model"
	"resume-tailor/resume/parse"
	"resume-tailor/resume/render"
)

func main() {
	outPath := flag.String("out", "./out/sample_resume.docx", "output path for generated DOCX")
	replyPath := flag.String("reply", "", "render a saved model reply instead of the built-in sample")
	flag.Parse()

	resume := sampleResume()
	if *replyPath != "" {
		parsed, err := resumeFromReply(*replyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reply failed: %v\n", err)
			os.Exit(1)
		}
		resume = parsed
	}

	written, err := render.WriteFile(resume, *outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
		os.Exit(1)
	}

	if err := writeModel(filepath.Dir(written), resume); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}

	if err := validateRenderedDocx(written, resume.Name); err != nil {
		fmt.Fprintf(os.Stderr, "render validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: wrote %s\n", written)
}

func resumeFromReply(path string) (model.Resume, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Resume{}, err
	}
	reply := parse.Response(string(raw))
	if reply.Failed() {
		return model.Resume{}, fmt.Errorf("%s", reply.Error)
	}
	return reply.Result.Resume, nil
}

func writeModel(dir string, resume model.Resume) error {
	payload, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "sample_resume_model.json"), payload, 0o644)
}

func sampleResume() model.Resume {
	return model.Resume{
		Name: "Jordan Lee",
		Contact: model.Contact{
			Email:    "jordan.lee@example.com",
			Phone:    "+1-555-0102",
			Location: "Austin, TX",
			LinkedIn: "linkedin.com/in/jordanlee",
		},
		ProfessionalSummary: "Backend engineer with 8+ years of experience building resilient APIs and data services.",
		CoreCompetencies: model.Competencies{
			{Category: "Languages", Skills: []string{"Go", "Java", "SQL"}},
			{Category: "Cloud & DevOps", Skills: []string{"AWS", "Docker", "Kubernetes"}},
			{Category: "Observability", Skills: []string{"OpenTelemetry", "Prometheus"}},
		},
		Experience: []model.Experience{
			{
				Company:   "Acme Logistics",
				Location:  "Austin, TX",
				Title:     "Senior Backend Engineer",
				StartDate: "Apr 2021",
				EndDate:   "Present",
				Bullets: []string{
					"Designed a routing service that reduced shipment latency by 18%.",
					"Implemented distributed tracing to cut incident triage time by 35%.",
				},
			},
			{
				Company:   "Blue Harbor Systems",
				Location:  "Seattle, WA",
				Title:     "Backend Engineer",
				StartDate: "Jan 2018",
				EndDate:   "Mar 2021",
				Bullets: []string{
					"Built event-driven ingestion pipelines for compliance data feeds.",
				},
			},
		},
		Education: []model.Education{
			{
				Degree:         "B.S.",
				Field:          "Computer Science",
				University:     "University of Texas",
				Location:       "Austin, TX",
				GraduationDate: "2016",
				GPA:            "3.7",
				Coursework:     []string{"Distributed Systems", "Databases"},
			},
		},
		Certifications: []string{"AWS Certified Solutions Architect"},
	}
}

func validateRenderedDocx(path, name string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if strings.ReplaceAll(file.Name, "\\", "/") != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return err
		}
		text := string(content)
		if idx := strings.Index(text, "{{"); idx != -1 {
			return fmt.Errorf("unresolved template tokens near offset %d", idx)
		}
		var escaped strings.Builder
		_ = xml.EscapeText(&escaped, []byte(name))
		if name != "" && !strings.Contains(text, escaped.String()) {
			return fmt.Errorf("candidate name %q missing from document.xml", name)
		}
		return nil
	}

	return fmt.Errorf("document.xml not found in docx")
}
