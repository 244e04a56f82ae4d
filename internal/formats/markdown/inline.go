package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// inlineMarkdown only knows paragraphs; block structure is already
// resolved by the line scanner.
var inlineMarkdown = goldmark.New(goldmark.WithParser(parser.NewParser(
	parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
	parser.WithInlineParsers(parser.DefaultInlineParsers()...),
)))

// parseInline converts inline Markdown into merged elements.
func parseInline(s string, load docbridge.Loader) ([]cdm.Element, error) {
	src := []byte(s)
	root := inlineMarkdown.Parser().Parse(text.NewReader(src))
	c := &inliner{src: src, load: load}
	first := true
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if !first {
			c.text("\n", 0)
		}
		first = false
		if err := c.walk(n, 0); err != nil {
			return nil, err
		}
	}
	return reconcile.MergeText(c.out), nil
}

// plainInline parses inline Markdown and flattens it to text.
func plainInline(s string) (string, error) {
	elems, err := parseInline(s, nil)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, e := range elems {
		b.WriteString(reconcile.PlainText(e))
	}
	return b.String(), nil
}

type inliner struct {
	src  []byte
	load docbridge.Loader
	out  []cdm.Element
}

func (c *inliner) text(s string, size int) {
	c.out = append(c.out, cdm.Text{Content: s, Size: reconcile.ClampSize(size)})
}

func (c *inliner) walk(n ast.Node, size int) error {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Text:
			value := v.Segment.Value(c.src)
			if !v.IsRaw() {
				value = util.UnescapePunctuations(value)
			}
			c.text(string(value), size)
			if v.SoftLineBreak() || v.HardLineBreak() {
				c.text("\n", size)
			}
		case *ast.String:
			c.text(string(v.Value), size)
		case *ast.CodeSpan:
			c.text(c.code(v), 0)
		case *ast.Emphasis:
			if err := c.walk(v, size+v.Level); err != nil {
				return err
			}
		case *ast.Link:
			label, err := c.label(v)
			if err != nil {
				return err
			}
			c.out = append(c.out, cdm.Hyperlink{
				Title: label,
				URL:   string(util.UnescapePunctuations(v.Destination)),
				Alt:   string(util.UnescapePunctuations(v.Title)),
				Size:  reconcile.ClampSize(size),
			})
		case *ast.AutoLink:
			url := string(v.Label(c.src))
			c.out = append(c.out, cdm.Hyperlink{Title: url, URL: url, Alt: url, Size: reconcile.ClampSize(size)})
		case *ast.Image:
			alt, err := c.label(v)
			if err != nil {
				return err
			}
			el, err := base.ImageRef(c.load,
				string(util.UnescapePunctuations(v.Destination)),
				string(util.UnescapePunctuations(v.Title)),
				alt)
			if err != nil {
				return err
			}
			c.out = append(c.out, el)
		case *ast.RawHTML:
			var b strings.Builder
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				b.Write(seg.Value(c.src))
			}
			c.text(b.String(), size)
		default:
			if err := c.walk(child, size); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *inliner) code(n *ast.CodeSpan) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch v := child.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(c.src))
		case *ast.String:
			b.Write(v.Value)
		}
	}
	return strings.ReplaceAll(b.String(), "\n", " ")
}

// label flattens the children of a link or image to plain text.
func (c *inliner) label(n ast.Node) (string, error) {
	sub := &inliner{src: c.src}
	if err := sub.walk(n, 0); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, e := range sub.out {
		b.WriteString(reconcile.PlainText(e))
	}
	return b.String(), nil
}
