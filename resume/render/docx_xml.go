package render

import (
	"bytes"
	"encoding/xml"
)

const (
	wmlNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	relNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// namespacePrefixes must match the declarations in documentRootStart.
var namespacePrefixes = map[string]string{
	wmlNamespace: "w",
	relNamespace: "r",
}

// xmlNode is a minimal element tree. Text nodes carry IsText and Text only.
type xmlNode struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*xmlNode
	Text     string
	IsText   bool
}

// w builds a WordprocessingML element.
func w(local string, attrs []xml.Attr, children ...*xmlNode) *xmlNode {
	return &xmlNode{
		Name:     xml.Name{Space: wmlNamespace, Local: local},
		Attr:     attrs,
		Children: children,
	}
}

func wVal(value string) []xml.Attr {
	return []xml.Attr{wAttr("val", value)}
}

func wAttr(local, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Space: wmlNamespace, Local: local}, Value: value}
}

func textNode(text string) *xmlNode {
	return &xmlNode{IsText: true, Text: text}
}

// encodeDocument writes word/document.xml. The root's namespaces are declared
// once on documentRootStart and every descendant uses the short prefixes.
func encodeDocument(root *xmlNode) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteByte('\n')
	buf.WriteString(documentRootStart)

	encoder := xml.NewEncoder(&buf)
	for _, child := range root.Children {
		if err := encodeNode(encoder, child); err != nil {
			return nil, err
		}
	}
	if err := encoder.Flush(); err != nil {
		return nil, err
	}

	buf.WriteString(documentRootEnd)
	return buf.Bytes(), nil
}

func encodeNode(encoder *xml.Encoder, node *xmlNode) error {
	if node.IsText {
		return encoder.EncodeToken(xml.CharData(node.Text))
	}
	start := xml.StartElement{Name: prefixedName(node.Name)}
	for _, attr := range node.Attr {
		start.Attr = append(start.Attr, xml.Attr{Name: prefixedName(attr.Name), Value: attr.Value})
	}
	if err := encoder.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range node.Children {
		if err := encodeNode(encoder, child); err != nil {
			return err
		}
	}
	return encoder.EncodeToken(start.End())
}

func prefixedName(name xml.Name) xml.Name {
	if prefix, ok := namespacePrefixes[name.Space]; ok {
		return xml.Name{Local: prefix + ":" + name.Local}
	}
	return name
}

func isElement(node *xmlNode, local string) bool {
	if node == nil || node.IsText || node.Name.Local != local {
		return false
	}
	return node.Name.Space == "" || node.Name.Space == wmlNamespace
}
