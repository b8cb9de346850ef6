package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

const contentTypesXML = xmlHeader + `
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const rootRelsXML = xmlHeader + `
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

const documentRelsXML = xmlHeader + `
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>` +
	`</Relationships>`

const corePropsXML = xmlHeader + `
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">` +
	`<dc:title>Resume</dc:title><dc:creator>resume-tailor</dc:creator>` +
	`</cp:coreProperties>`

var stylesXML = fmt.Sprintf(xmlHeader+`
<w:styles xmlns:w="%[1]s">`+
	`<w:docDefaults>`+
	`<w:rPrDefault><w:rPr><w:rFonts w:ascii="%[2]s" w:hAnsi="%[2]s" w:cs="%[2]s"/><w:sz w:val="%[3]d"/><w:szCs w:val="%[3]d"/></w:rPr></w:rPrDefault>`+
	`<w:pPrDefault><w:pPr><w:spacing w:after="0" w:line="240" w:lineRule="auto"/></w:pPr></w:pPrDefault>`+
	`</w:docDefaults>`+
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`+
	`<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/>`+
	`<w:pPr><w:numPr><w:numId w:val="1"/></w:numPr><w:ind w:left="%[4]d" w:hanging="%[4]d"/></w:pPr></w:style>`+
	`</w:styles>`, wmlNamespace, FontFamily, BodySize, indentQuarter)

var numberingXML = fmt.Sprintf(xmlHeader+`
<w:numbering xmlns:w="%[1]s">`+
	`<w:abstractNum w:abstractNumId="0"><w:multiLevelType w:val="singleLevel"/>`+
	`<w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="•"/><w:lvlJc w:val="left"/>`+
	`<w:pPr><w:ind w:left="%[2]d" w:hanging="%[2]d"/></w:pPr>`+
	`<w:rPr><w:rFonts w:ascii="%[3]s" w:hAnsi="%[3]s" w:cs="%[3]s"/></w:rPr></w:lvl>`+
	`</w:abstractNum>`+
	`<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>`+
	`</w:numbering>`, wmlNamespace, indentQuarter, FontFamily)

var documentRootStart = fmt.Sprintf(`<w:document xmlns:w="%s" xmlns:r="%s">`, wmlNamespace, relNamespace)

const documentRootEnd = `</w:document>`

type packagePart struct {
	name    string
	content []byte
}

// writePackage zips the parts in order. [Content_Types].xml must come first.
func writePackage(parts []packagePart) ([]byte, error) {
	var output bytes.Buffer
	writer := zip.NewWriter(&output)
	for _, part := range parts {
		header := &zip.FileHeader{Name: normalizeZipName(part.name), Method: zip.Deflate}
		dst, err := writer.CreateHeader(header)
		if err != nil {
			return nil, err
		}
		if _, err := dst.Write(part.content); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

func packageParts(documentXML []byte) []packagePart {
	return []packagePart{
		{name: "[Content_Types].xml", content: []byte(contentTypesXML)},
		{name: "_rels/.rels", content: []byte(rootRelsXML)},
		{name: "word/document.xml", content: documentXML},
		{name: "word/_rels/document.xml.rels", content: []byte(documentRelsXML)},
		{name: "word/styles.xml", content: []byte(stylesXML)},
		{name: "word/numbering.xml", content: []byte(numberingXML)},
		{name: "docProps/core.xml", content: []byte(corePropsXML)},
	}
}

func normalizeZipName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}
