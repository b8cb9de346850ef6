package render

import (
	"encoding/xml"
	"strings"
)

// decodedElement mirrors any element of document.xml for assertions.
type decodedElement struct {
	XMLName  xml.Name
	Attr     []xml.Attr       `xml:",any,attr"`
	Text     string           `xml:",chardata"`
	Children []decodedElement `xml:",any"`
}

func parseDocument(xmlText string) (*xmlNode, error) {
	var doc decodedElement
	if err := xml.Unmarshal([]byte(xmlText), &doc); err != nil {
		return nil, err
	}
	return doc.node(), nil
}

func (e decodedElement) node() *xmlNode {
	n := &xmlNode{Name: e.XMLName, Attr: e.Attr}
	if len(e.Children) == 0 && e.Text != "" {
		n.Children = []*xmlNode{textNode(e.Text)}
	}
	for _, child := range e.Children {
		n.Children = append(n.Children, child.node())
	}
	return n
}

// walkXML visits nodes depth-first until visit returns false.
func walkXML(node *xmlNode, visit func(*xmlNode) bool) bool {
	if node == nil || !visit(node) {
		return node == nil
	}
	for _, child := range node.Children {
		if !walkXML(child, visit) {
			return false
		}
	}
	return true
}

// paragraphText joins w:t text, with w:br as "\n".
func paragraphText(p *xmlNode) string {
	var b strings.Builder
	walkXML(p, func(n *xmlNode) bool {
		switch {
		case isElement(n, "t"):
			for _, child := range n.Children {
				b.WriteString(child.Text)
			}
		case isElement(n, "br"):
			b.WriteByte('\n')
		}
		return true
	})
	return b.String()
}

func findBodyNode(root *xmlNode) *xmlNode {
	var body *xmlNode
	walkXML(root, func(n *xmlNode) bool {
		if isElement(n, "body") {
			body = n
		}
		return body == nil
	})
	return body
}
