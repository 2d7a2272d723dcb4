package markup

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Outline renders the element tree of the document body.
func Outline(markup string) (string, error) {
	body, err := parseBody(markup)
	if err != nil {
		return "", err
	}
	var lines []string
	renderTree(body, "", &lines)
	return strings.Join(lines, "\n"), nil
}

// Body returns the inner markup of <body> for full documents and the input otherwise.
func Body(markup string) (string, error) {
	if !strings.Contains(strings.ToLower(markup), "<body") {
		return strings.TrimSpace(markup), nil
	}
	body, err := parseBody(markup)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func parseBody(markup string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	if body := findElement(doc, atom.Body); body != nil {
		return body, nil
	}
	return doc, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, a); found != nil {
			return found
		}
	}
	return nil
}

func renderTree(node *html.Node, prefix string, lines *[]string) {
	children := visibleChildren(node)
	for i, child := range children {
		connector := "├── "
		nextPrefix := prefix + "│   "
		if i == len(children)-1 {
			connector = "└── "
			nextPrefix = prefix + "    "
		}
		*lines = append(*lines, prefix+connector+formatNodeLabel(child))
		renderTree(child, nextPrefix, lines)
	}
}

func visibleChildren(node *html.Node) []*html.Node {
	var result []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.ElementNode:
			result = append(result, child)
		case html.TextNode:
			if strings.TrimSpace(child.Data) != "" {
				result = append(result, child)
			}
		}
	}
	return result
}

func formatNodeLabel(node *html.Node) string {
	if node.Type == html.TextNode {
		return fmt.Sprintf("%q", strings.TrimSpace(node.Data))
	}
	if len(node.Attr) == 0 {
		return node.Data
	}
	parts := make([]string, len(node.Attr))
	for i, attr := range node.Attr {
		parts[i] = fmt.Sprintf("%s=%q", attr.Key, attr.Val)
	}
	return fmt.Sprintf("%s [%s]", node.Data, strings.Join(parts, ", "))
}
