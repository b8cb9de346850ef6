package render

import "fmt"

// checkDocument rejects trees Word refuses to open: elements outside the
// declared namespaces, nested paragraphs and run properties after run text.
func checkDocument(root *xmlNode) error {
	return checkNode(root, false)
}

func checkNode(node *xmlNode, inParagraph bool) error {
	if node == nil || node.IsText {
		return nil
	}
	if _, ok := namespacePrefixes[node.Name.Space]; !ok {
		return fmt.Errorf("element %q uses undeclared namespace %q", node.Name.Local, node.Name.Space)
	}
	for _, attr := range node.Attr {
		if attr.Name.Space == "" {
			continue
		}
		if _, ok := namespacePrefixes[attr.Name.Space]; !ok {
			return fmt.Errorf("attribute %q on <%s> uses undeclared namespace %q", attr.Name.Local, node.Name.Local, attr.Name.Space)
		}
	}

	isParagraph := isElement(node, "p")
	if isParagraph && inParagraph {
		return fmt.Errorf("nested <w:p>")
	}
	if isElement(node, "r") {
		seenText := false
		for _, child := range node.Children {
			switch {
			case isElement(child, "t"):
				seenText = true
			case isElement(child, "rPr") && seenText:
				return fmt.Errorf("<w:rPr> after <w:t> in a run")
			}
		}
	}

	for _, child := range node.Children {
		if err := checkNode(child, inParagraph || isParagraph); err != nil {
			return err
		}
	}
	return nil
}
