package parse

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/resume/model"
)

const (
	MessageNoJSON      = "Could not parse JSON from response"
	MessageInvalidJSON = "Invalid JSON in response"
)

// Reply is the outcome of parsing a model reply.
// Exactly one of Result or Error is set; Raw always holds the original text.
type Reply struct {
	Result *model.TailoredResume
	Error  string
	Raw    string
}

// Failed reports whether the reply carries an error marker instead of a result.
func (r Reply) Failed() bool {
	return r.Error != ""
}

// Response extracts the tailored resume object from a free-form model reply.
// The candidate JSON is the span from the first "{" to the last "}" in raw,
// without balancing braces, so a reply holding two objects yields an invalid span.
func Response(raw string) Reply {
	span, ok := braceSpan(raw)
	if !ok {
		return Reply{Error: MessageNoJSON, Raw: raw}
	}

	var generic any
	if err := json.Unmarshal([]byte(span), &generic); err != nil {
		telemetry.Warn("llm.reply.invalid_json", map[string]any{"error": err})
		return Reply{Error: MessageInvalidJSON, Raw: raw}
	}
	if err := validateShape(generic); err != nil {
		telemetry.Warn("llm.reply.schema_mismatch", map[string]any{"error": err})
		return Reply{Error: MessageInvalidJSON, Raw: raw}
	}

	var result model.TailoredResume
	if err := json.Unmarshal([]byte(span), &result); err != nil {
		telemetry.Warn("llm.reply.decode_failed", map[string]any{"error": err})
		return Reply{Error: MessageInvalidJSON, Raw: raw}
	}
	return Reply{Result: &result, Raw: raw}
}

func braceSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(raw, "}")
	if end < start {
		return "", false
	}
	return raw[start : end+1], true
}

var (
	shapeOnce   sync.Once
	shapeSchema *jsonschema.Schema
	shapeErr    error
)

func validateShape(v any) error {
	shapeOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("reply.json", strings.NewReader(replySchema)); err != nil {
			shapeErr = fmt.Errorf("add schema: %w", err)
			return
		}
		shapeSchema, shapeErr = compiler.Compile("reply.json")
		if shapeErr != nil {
			shapeErr = fmt.Errorf("compile schema: %w", shapeErr)
		}
	})
	if shapeErr != nil {
		return shapeErr
	}
	if err := shapeSchema.Validate(v); err != nil {
		return fmt.Errorf("reply does not match schema: %w", err)
	}
	return nil
}
