package main

// Run the tailoring prompt against local files without the HTTP server:
//   go run ./cmd/prompttest -resume a.pdf,b.docx -jd job.txt -model gemini-2.5-flash
// With -reply the LLM call is skipped and a saved reply is parsed instead.

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resume-tailor/internal/bootstrap"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/config"
	"resume-tailor/resume/parse"
	"resume-tailor/resume/render"
)

func main() {
	cfg := config.Load()

	resumePaths := flag.String("resume", "", "Comma-separated resume files (pdf, docx, doc or txt)")
	jdPath := flag.String("jd", "", "Path to job description file")
	modelID := flag.String("model", "gemini-2.5-flash", "Model id from the catalog")
	preference := flag.String("pref", "", "Formatting preference (optional)")
	replyPath := flag.String("reply", "", "Parse a saved model reply instead of calling the LLM")
	outPath := flag.String("out", "", "Path to write parsed JSON output (optional)")
	docxPath := flag.String("docx", "", "Render the parsed resume to this .docx path (optional)")
	flag.Parse()

	ctx := context.Background()

	var raw string
	if strings.TrimSpace(*replyPath) != "" {
		data, err := os.ReadFile(*replyPath)
		if err != nil {
			exitErr(fmt.Sprintf("read reply: %v", err))
		}
		raw = string(data)
	} else {
		raw = callModel(ctx, cfg, *resumePaths, *jdPath, *modelID, *preference)
	}

	reply := parse.Response(raw)
	if reply.Failed() {
		exitErr(fmt.Sprintf("%s\n\nraw reply:\n%s", reply.Error, truncate(reply.Raw, 2000)))
	}

	pretty, err := json.MarshalIndent(reply.Result, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if *docxPath != "" {
		if _, err := render.WriteFile(reply.Result.Resume, *docxPath); err != nil {
			exitErr(fmt.Sprintf("render docx: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	_, _ = os.Stdout.Write([]byte("\n"))
}

func callModel(ctx context.Context, cfg config.Config, resumePaths, jdPath, modelID, preference string) string {
	paths := splitPaths(resumePaths)
	if len(paths) == 0 {
		exitErr("at least one -resume path is required")
	}
	if strings.TrimSpace(jdPath) == "" {
		exitErr("-jd path is required")
	}

	texts := make([]string, 0, len(paths))
	for _, path := range paths {
		text, err := extractFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			continue
		}
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		exitErr("no resume text could be extracted")
	}

	jd, err := os.ReadFile(jdPath)
	if err != nil {
		exitErr(fmt.Sprintf("read job description: %v", err))
	}

	model, err := cfg.LookupModel(modelID)
	if err != nil {
		exitErr(err.Error())
	}

	raw, err := bootstrap.NewLLMGateway(cfg).Send(ctx, llm.Request{
		Provider:          model.Provider,
		Model:             model.APIModelName,
		SystemInstruction: llm.SystemInstruction(),
		UserPrompt:        llm.BuildUserPrompt(string(jd), texts, preference),
	})
	if err != nil {
		exitErr(fmt.Sprintf("llm send: %v", err))
	}
	return raw
}

func extractFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	ct := extract.NormalizeContentType("", filepath.Base(path), data)
	text, err := extract.Bytes(ctx, data, ct)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text extracted")
	}
	return text, nil
}

func splitPaths(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
