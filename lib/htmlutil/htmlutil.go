package htmlutil

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// StrippedText trims every text node under node and concatenates the non-empty results.
func StrippedText(node *html.Node) string {
	var buffer strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buffer.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if node != nil {
		walk(node)
	}
	return buffer.String()
}

// NewElement creates a detached element, with a single text child if text is not empty.
func NewElement(tag string, text string) *html.Node {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	if text != "" {
		node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return node
}

// Detach removes node from its parent, if it has one.
func Detach(node *html.Node) {
	if node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
}

// ReplaceNode puts replacements where old was, in order, and detaches old.
// Replacements that are still attached elsewhere are detached first so every node keeps one parent.
// If old has no parent, nothing happens.
func ReplaceNode(old *html.Node, replacements ...*html.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	for _, r := range replacements {
		Detach(r)
		parent.InsertBefore(r, old)
	}
	parent.RemoveChild(old)
}

// MoveChildren moves every child of from to the end of to, preserving order.
func MoveChildren(from, to *html.Node) {
	for child := from.FirstChild; child != nil; child = from.FirstChild {
		from.RemoveChild(child)
		to.AppendChild(child)
	}
}

// ClearChildren detaches every child of node.
func ClearChildren(node *html.Node) {
	for child := node.FirstChild; child != nil; child = node.FirstChild {
		node.RemoveChild(child)
	}
}

// HasAncestor reports whether any ancestor of node is an element with the given tag.
func HasAncestor(node *html.Node, tag string) bool {
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

// FirstElement returns the first descendant element of node with the given tag, depth first.
func FirstElement(node *html.Node, tag string) *html.Node {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == tag {
			return child
		}
		if found := FirstElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// Render serializes node and its subtree.
func Render(node *html.Node) (string, error) {
	var buffer bytes.Buffer
	err := html.Render(&buffer, node)
	if err != nil {
		return "", err
	}
	return buffer.String(), nil
}

// Reparse renders node and parses it back in the context of its parent, replacing node with the result.
// It returns the nodes now standing where node was.
func Reparse(node *html.Node) ([]*html.Node, error) {
	parent := node.Parent
	if parent == nil {
		return nil, nil
	}
	rendered, err := Render(node)
	if err != nil {
		return nil, err
	}
	context := parent
	if context.Type != html.ElementNode {
		context = NewElement("body", "")
	}
	nodes, err := html.ParseFragment(strings.NewReader(rendered), context)
	if err != nil {
		return nil, err
	}
	ReplaceNode(node, nodes...)
	return nodes, nil
}
