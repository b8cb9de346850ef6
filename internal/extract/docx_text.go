package extract

import (
	"encoding/xml"
	"strings"
)

type wDocument struct {
	Body wBody `xml:"body"`
}

type wBody struct {
	Paragraphs []wParagraph `xml:"p"`
	Tables     []wTable     `xml:"tbl"`
}

type wTable struct {
	Rows []wRow `xml:"tr"`
}

type wRow struct {
	Cells []wCell `xml:"tc"`
}

type wCell struct {
	Paragraphs []wParagraph `xml:"p"`
}

func (c wCell) text() string {
	parts := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// wParagraph collects run text in document order.
// Drawings and alternate content are skipped so text boxes are not folded into the paragraph.
type wParagraph struct {
	Text string
}

var skippedElements = map[string]bool{
	"drawing":          true,
	"pict":             true,
	"AlternateContent": true,
	"delText":          true,
	"instrText":        true,
}

func (p *wParagraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	stack := []string{start.Name.Local}
	skip := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if skip > 0 || skippedElements[name] {
				skip++
				stack = append(stack, name)
				continue
			}
			parent := stack[len(stack)-1]
			if parent != "r" {
				stack = append(stack, name)
				continue
			}
			switch name {
			case "t":
				var s string
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				b.WriteString(s)
				continue
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) == 1 {
				p.Text = b.String()
				return nil
			}
			stack = stack[:len(stack)-1]
			if skip > 0 {
				skip--
			}
		}
	}
}

// documentText flattens word/document.xml: non-empty body paragraphs first,
// then non-empty table cells row by row.
func documentText(content string) (string, error) {
	var doc wDocument
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return "", err
	}

	var parts []string
	for _, p := range doc.Body.Paragraphs {
		if strings.TrimSpace(p.Text) != "" {
			parts = append(parts, p.Text)
		}
	}
	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			for _, cell := range row.Cells {
				text := cell.text()
				if strings.TrimSpace(text) != "" {
					parts = append(parts, text)
				}
			}
		}
	}
	return strings.Join(parts, "\n"), nil
}
