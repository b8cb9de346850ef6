package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TailoredResume is the structured object the model is asked to return.
type TailoredResume struct {
	Analysis Analysis `json:"analysis"`
	Resume   Resume   `json:"resume"`
}

// Analysis describes how the resume was matched against the job description.
type Analysis struct {
	JobKeywords             TextList `json:"job_keywords"`
	RequiredQualifications  TextList `json:"required_qualifications"`
	PreferredQualifications TextList `json:"preferred_qualifications"`
	CandidateStrengths      TextList `json:"candidate_strengths"`
	Gaps                    TextList `json:"gaps"`
	TailoringStrategy       Text     `json:"tailoring_strategy"`
}

// Resume is the renderable part of a TailoredResume.
// Every field is optional; null and absent both decode to the zero value.
type Resume struct {
	Name                string       `json:"name"`
	Contact             Contact      `json:"contact"`
	ProfessionalSummary string       `json:"professional_summary"`
	CoreCompetencies    Competencies `json:"core_competencies"`
	Experience          []Experience `json:"experience"`
	Education           []Education  `json:"education"`
	Certifications      []string     `json:"certifications"`
	Skills              TextList     `json:"skills"`
}

type Contact struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
}

// Parts returns the non-empty contact values in display order.
func (c Contact) Parts() []string {
	return nonEmpty(c.Location, c.Phone, c.Email, c.LinkedIn)
}

type Experience struct {
	Company   string   `json:"company"`
	Location  string   `json:"location"`
	Title     string   `json:"title"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Bullets   []string `json:"bullets"`
}

type Education struct {
	Degree         string   `json:"degree"`
	Field          string   `json:"field"`
	University     string   `json:"university"`
	Location       string   `json:"location"`
	GraduationDate string   `json:"graduation_date"`
	GPA            Text     `json:"gpa"`
	Coursework     []string `json:"coursework"`
}

// CompetencyGroup is one "Category: skill | skill" line.
type CompetencyGroup struct {
	Category string
	Skills   []string
}

// Competencies keeps the category order of the JSON object it was decoded from.
type Competencies []CompetencyGroup

func (c *Competencies) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("core_competencies: expected object, got %v", tok)
	}

	var groups Competencies
	index := map[string]int{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("core_competencies: unexpected key %v", keyTok)
		}
		var skills []string
		if err := dec.Decode(&skills); err != nil {
			return fmt.Errorf("core_competencies[%s]: %w", key, err)
		}
		if i, seen := index[key]; seen {
			groups[i].Skills = skills
			continue
		}
		index[key] = len(groups)
		groups = append(groups, CompetencyGroup{Category: key, Skills: skills})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = groups
	return nil
}

func (c Competencies) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, group := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(group.Category)
		if err != nil {
			return nil, err
		}
		skills := group.Skills
		if skills == nil {
			skills = []string{}
		}
		value, err := json.Marshal(skills)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Text is a string field that also accepts a bare JSON number or boolean.
// A list is flattened to its non-empty items joined by "; " and an object
// is kept as compact JSON.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '"':
			var s string
			if err := json.Unmarshal(trimmed, &s); err != nil {
				return err
			}
			*t = Text(s)
			return nil
		case '[':
			var items []Text
			if err := json.Unmarshal(trimmed, &items); err != nil {
				return err
			}
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if strings.TrimSpace(string(item)) != "" {
					parts = append(parts, string(item))
				}
			}
			*t = Text(strings.Join(parts, "; "))
			return nil
		case '{':
			var buf bytes.Buffer
			if err := json.Compact(&buf, trimmed); err != nil {
				return err
			}
			*t = Text(buf.String())
			return nil
		}
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	b, err := strconv.ParseBool(string(trimmed))
	if err != nil {
		return fmt.Errorf("expected string, number or boolean, got %s", trimmed)
	}
	*t = Text(strconv.FormatBool(b))
	return nil
}

func (t Text) String() string { return string(t) }

// TextList is a list of strings that also accepts a single value in place of
// the list. Items that are not strings are converted the way Text converts them.
type TextList []string

func (l *TextList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		var single Text
		if err := single.UnmarshalJSON(trimmed); err != nil {
			return err
		}
		*l = TextList{string(single)}
		return nil
	}
	var items []Text
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	out := make(TextList, len(items))
	for i, item := range items {
		out[i] = string(item)
	}
	*l = out
	return nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
