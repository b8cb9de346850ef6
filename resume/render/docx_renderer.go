package render

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"resume-tailor/resume/model"
)

// PlaceholderName is rendered when the resume has no name.
const PlaceholderName = "Candidate Name"

const (
	headingSummary        = "PROFESSIONAL SUMMARY"
	headingCompetencies   = "CORE COMPETENCIES"
	headingExperience     = "PROFESSIONAL EXPERIENCE"
	headingEducation      = "EDUCATION"
	headingCertifications = "CERTIFICATIONS"
)

// Render builds a .docx package for resume.
func Render(resume model.Resume) ([]byte, error) {
	documentXML, err := renderDocumentXML(resume)
	if err != nil {
		return nil, err
	}
	data, err := writePackage(packageParts(documentXML))
	if err != nil {
		return nil, failure("package", "", err)
	}
	return data, nil
}

// WriteFile renders resume to outputPath, creating missing directories and
// replacing any existing file. It returns outputPath.
func WriteFile(resume model.Resume, outputPath string) (string, error) {
	data, err := Render(resume)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", failure("mkdir", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".render-*.docx")
	if err != nil {
		return "", failure("create", outputPath, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", failure("write", outputPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", failure("write", outputPath, err)
	}
	if err := os.Rename(tmpName, outputPath); err != nil {
		_ = os.Remove(tmpName)
		return "", failure("rename", outputPath, err)
	}
	return outputPath, nil
}

func renderDocumentXML(resume model.Resume) ([]byte, error) {
	blocks := documentBody(resume)
	blocks = append(blocks, sectionProperties())
	root := w("document", nil, w("body", nil, blocks...))

	if err := checkDocument(root); err != nil {
		return nil, failure("validate", "word/document.xml", err)
	}
	out, err := encodeDocument(root)
	if err != nil {
		return nil, failure("encode", "word/document.xml", err)
	}
	return out, nil
}

type bodyBuilder struct {
	blocks []*xmlNode
}

func (b *bodyBuilder) add(p *xmlNode) {
	b.blocks = append(b.blocks, p)
}

func (b *bodyBuilder) spacer() {
	b.add(w("p", nil))
}

func (b *bodyBuilder) heading(text string) {
	b.add(paragraph(paragraphProps{}, run(text, StyleMap["sectionHeading"])))
}

func (b *bodyBuilder) bullet(text string) {
	b.add(paragraph(paragraphProps{bullet: true, indent: indentQuarter}, run(text, StyleMap["body"])))
}

// documentBody lays out the resume sections in their fixed order.
// Sections with no data are skipped without a heading.
func documentBody(resume model.Resume) []*xmlNode {
	b := &bodyBuilder{}
	body := StyleMap["body"]

	name := resume.Name
	if strings.TrimSpace(name) == "" {
		name = PlaceholderName
	}
	b.add(paragraph(paragraphProps{center: true}, run(name, StyleMap["name"])))

	if parts := resume.Contact.Parts(); len(parts) > 0 {
		b.add(paragraph(paragraphProps{center: true}, run(strings.Join(parts, " • "), body)))
	}
	b.spacer()

	if strings.TrimSpace(resume.ProfessionalSummary) != "" {
		b.heading(headingSummary)
		b.add(paragraph(paragraphProps{}, run(resume.ProfessionalSummary, body)))
		b.spacer()
	}

	if len(resume.CoreCompetencies) > 0 {
		b.heading(headingCompetencies)
		for _, group := range resume.CoreCompetencies {
			b.add(paragraph(paragraphProps{indent: indentQuarter},
				run(group.Category+": ", StyleMap["label"]),
				run(strings.Join(group.Skills, " | "), body),
			))
		}
		b.spacer()
	}

	if len(resume.Experience) > 0 {
		b.heading(headingExperience)
		for _, exp := range resume.Experience {
			b.add(paragraph(paragraphProps{}, run(joinPresent(" • ", exp.Company, exp.Location), StyleMap["entryLine"])))
			dates := joinPresent(" – ", exp.StartDate, exp.EndDate)
			b.add(paragraph(paragraphProps{}, run(joinPresent(" | ", exp.Title, dates), StyleMap["entryLine"])))
			for _, bullet := range exp.Bullets {
				b.bullet(bullet)
			}
			b.spacer()
		}
	}

	if len(resume.Education) > 0 {
		b.heading(headingEducation)
		for _, edu := range resume.Education {
			degree := edu.Degree
			if strings.TrimSpace(edu.Field) != "" {
				degree = edu.Degree + " (" + edu.Field + ")"
			}
			gpa := ""
			if strings.TrimSpace(edu.GPA.String()) != "" {
				gpa = "GPA: " + edu.GPA.String()
			}
			b.add(paragraph(paragraphProps{},
				run(degree, StyleMap["entryLine"]),
				lineBreak(body),
				run(joinPresent(" • ", edu.University, edu.Location, gpa, edu.GraduationDate), body),
			))
			if len(edu.Coursework) > 0 {
				b.add(paragraph(paragraphProps{indent: indentQuarter},
					run("Relevant Coursework: "+strings.Join(edu.Coursework, ", "), body)))
			}
		}
		b.spacer()
	}

	if len(resume.Certifications) > 0 {
		b.heading(headingCertifications)
		for _, cert := range resume.Certifications {
			b.bullet(cert)
		}
	}

	return b.blocks
}

type paragraphProps struct {
	center bool
	bullet bool
	indent int
}

// node returns w:pPr, or nil when no property is set. Children follow schema order.
func (p paragraphProps) node() *xmlNode {
	var children []*xmlNode
	if p.bullet {
		children = append(children,
			w("pStyle", wVal("ListBullet")),
			w("numPr", nil, w("ilvl", wVal("0")), w("numId", wVal("1"))),
		)
	}
	if p.indent > 0 {
		attrs := []xml.Attr{wAttr("left", strconv.Itoa(p.indent))}
		if p.bullet {
			attrs = append(attrs, wAttr("hanging", strconv.Itoa(indentQuarter)))
		}
		children = append(children, w("ind", attrs))
	}
	if p.center {
		children = append(children, w("jc", wVal("center")))
	}
	if len(children) == 0 {
		return nil
	}
	return w("pPr", nil, children...)
}

func paragraph(props paragraphProps, runs ...*xmlNode) *xmlNode {
	p := w("p", nil)
	if pPr := props.node(); pPr != nil {
		p.Children = append(p.Children, pPr)
	}
	p.Children = append(p.Children, runs...)
	return p
}

// run emits one w:r; embedded newlines become w:br.
func run(text string, style RunStyle) *xmlNode {
	r := w("r", nil, runProperties(style))
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			r.Children = append(r.Children, w("br", nil))
		}
		if line == "" {
			continue
		}
		t := w("t", []xml.Attr{{Name: xml.Name{Local: "xml:space"}, Value: "preserve"}}, textNode(line))
		r.Children = append(r.Children, t)
	}
	return r
}

func lineBreak(style RunStyle) *xmlNode {
	return w("r", nil, runProperties(style), w("br", nil))
}

func runProperties(style RunStyle) *xmlNode {
	children := []*xmlNode{
		w("rFonts", []xml.Attr{wAttr("ascii", FontFamily), wAttr("hAnsi", FontFamily), wAttr("cs", FontFamily)}),
	}
	if style.Bold {
		children = append(children, w("b", nil))
	}
	size := strconv.Itoa(style.Size)
	children = append(children, w("sz", wVal(size)), w("szCs", wVal(size)))
	return w("rPr", nil, children...)
}

func sectionProperties() *xmlNode {
	return w("sectPr", nil,
		w("pgSz", []xml.Attr{wAttr("w", strconv.Itoa(pageWidth)), wAttr("h", strconv.Itoa(pageHeight))}),
		w("pgMar", []xml.Attr{
			wAttr("top", strconv.Itoa(marginTop)),
			wAttr("right", strconv.Itoa(marginRight)),
			wAttr("bottom", strconv.Itoa(marginBottom)),
			wAttr("left", strconv.Itoa(marginLeft)),
			wAttr("header", "720"),
			wAttr("footer", "720"),
			wAttr("gutter", "0"),
		}),
	)
}

func joinPresent(sep string, parts ...string) string {
	present := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			present = append(present, part)
		}
	}
	return strings.Join(present, sep)
}
