// Package xml provides the strict XML reader shared by the xml, docx and ods
// modules: a well-formedness pass with line numbers, then an xmlquery tree
// with XPath lookup.
//
// Security Notes:
//   - Document type declarations are rejected outright, so neither internal
//     nor external entities can be declared (CWE-611, CWE-776).
//   - Only the five predefined entities and character references resolve.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML element.
type Node struct {
	node *xmlquery.Node
}

// SyntaxError reports malformed or disallowed input at a 1-based line.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Check scans data for well-formedness without building a tree.
func Check(data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = true
	decoder.Entity = map[string]string{}

	depth, roots := 0, 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if se, ok := err.(*xml.SyntaxError); ok {
				return &SyntaxError{Line: se.Line, Message: se.Msg}
			}
			line, _ := decoder.InputPos()
			return &SyntaxError{Line: line, Message: err.Error()}
		}
		switch t := tok.(type) {
		case xml.Directive:
			line, _ := decoder.InputPos()
			if bytes.HasPrefix(bytes.TrimSpace(t), []byte("DOCTYPE")) {
				return &SyntaxError{Line: line, Message: "document type declarations are not allowed"}
			}
			return &SyntaxError{Line: line, Message: "unexpected directive"}
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					line, _ := decoder.InputPos()
					return &SyntaxError{Line: line, Message: "multiple root elements"}
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				line, _ := decoder.InputPos()
				return &SyntaxError{Line: line, Message: "text outside the root element"}
			}
		}
	}
	if roots == 0 {
		return &SyntaxError{Line: 1, Message: "no root element"}
	}
	return nil
}

// Parse checks data and returns its tree.
func Parse(data []byte) (*Document, error) {
	if err := Check(data); err != nil {
		return nil, err
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	return queryAll(d.root, expr)
}

// XPathFirst executes an XPath query and returns the first matching node.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	return queryFirst(d.root, expr)
}

func queryAll(n *xmlquery.Node, expr string) ([]*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	nodes, err := xmlquery.QueryAll(n, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	result := make([]*Node, len(nodes))
	for i, m := range nodes {
		result[i] = &Node{node: m}
	}
	return result, nil
}

func queryFirst(n *xmlquery.Node, expr string) (*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	m, err := xmlquery.Query(n, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	if m == nil {
		return nil, nil
	}
	return &Node{node: m}, nil
}

// Name returns the local element name.
func (n *Node) Name() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.Data
}

// Prefix returns the namespace prefix as written.
func (n *Node) Prefix() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.Prefix
}

// Is reports whether the element is prefix:local.
func (n *Node) Is(prefix, local string) bool {
	return n.Prefix() == prefix && n.Name() == local
}

// Text returns all text content of the node and its descendants.
func (n *Node) Text() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// HasText reports whether the node has a direct text child that is not
// whitespace.
func (n *Node) HasText() bool {
	if n == nil || n.node == nil {
		return false
	}
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(child.Data) != "" {
				return true
			}
		}
	}
	return false
}

// Children returns the child element nodes.
func (n *Node) Children() []*Node {
	if n == nil || n.node == nil {
		return nil
	}
	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// Nodes returns the element and character data children in document
// order. Comments and processing instructions are skipped.
func (n *Node) Nodes() []*Node {
	if n == nil || n.node == nil {
		return nil
	}
	var nodes []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.ElementNode, xmlquery.TextNode, xmlquery.CharDataNode:
			nodes = append(nodes, &Node{node: child})
		}
	}
	return nodes
}

// IsText reports whether the node is character data.
func (n *Node) IsText() bool {
	return n != nil && n.node != nil && (n.node.Type == xmlquery.TextNode || n.node.Type == xmlquery.CharDataNode)
}

// Child returns the first child element named prefix:local, or nil.
func (n *Node) Child(prefix, local string) *Node {
	for _, c := range n.Children() {
		if c.Is(prefix, local) {
			return c
		}
	}
	return nil
}

// Find runs an XPath query relative to the node.
func (n *Node) Find(expr string) ([]*Node, error) {
	return queryAll(n.node, expr)
}

// FindOne runs an XPath query relative to the node and returns the first hit.
func (n *Node) FindOne(expr string) (*Node, error) {
	return queryFirst(n.node, expr)
}

// Attr is one attribute as written.
type Attr struct {
	Prefix string
	Name   string
	Value  string
}

// Attributes returns the attributes in document order, namespace
// declarations excluded.
func (n *Node) Attributes() []Attr {
	if n == nil || n.node == nil {
		return nil
	}
	var attrs []Attr
	for _, a := range n.node.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		attrs = append(attrs, Attr{Prefix: a.Name.Space, Name: a.Name.Local, Value: a.Value})
	}
	return attrs
}

// Attr returns the value of the attribute named prefix:local.
func (n *Node) Attr(prefix, local string) (string, bool) {
	for _, a := range n.Attributes() {
		if a.Prefix == prefix && a.Name == local {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue returns the attribute value or the empty string.
func (n *Node) AttrValue(prefix, local string) string {
	v, _ := n.Attr(prefix, local)
	return v
}

// OutputXML renders the node and its descendants.
func (n *Node) OutputXML() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.OutputXML(true)
}
