package llm

import (
	_ "embed"
	"strings"
)

// ResumeSeparator joins the extracted texts of several base resumes.
const ResumeSeparator = "\n\n---RESUME SEPARATOR---\n\n"

var (
	//go:embed prompts/system.txt
	systemInstruction string
	//go:embed prompts/tailor_user.txt
	tailorUserTemplate string
)

// SystemInstruction returns the fixed instruction sent with every tailoring request.
func SystemInstruction() string {
	return strings.TrimSuffix(systemInstruction, "\n")
}

// BuildUserPrompt fills the tailoring template. The formatting preference line
// is left blank when preference is empty.
func BuildUserPrompt(jobDescription string, resumeTexts []string, formattingPreference string) string {
	preference := ""
	if strings.TrimSpace(formattingPreference) != "" {
		preference = "FORMATTING PREFERENCE: " + formattingPreference
	}
	replacer := strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", jobDescription,
		"{{RESUMES}}", strings.Join(resumeTexts, ResumeSeparator),
		"{{FORMATTING_PREFERENCE}}", preference,
	)
	return replacer.Replace(strings.TrimSuffix(tailorUserTemplate, "\n"))
}
