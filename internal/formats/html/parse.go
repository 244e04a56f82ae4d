package html

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

var (
	spaceRe      = regexp.MustCompile(`[ \t\n\r\f]+`)
	widthRe      = regexp.MustCompile(`width:\s*([0-9.]+)mm`)
	pageSizeRe   = regexp.MustCompile(`@page\s*\{[^}]*size:\s*([0-9.]+)mm\s+([0-9.]+)mm`)
	pageMarginRe = regexp.MustCompile(`@page\s*\{[^}]*margin:\s*([0-9.]+)mm\s+([0-9.]+)mm\s+([0-9.]+)mm\s+([0-9.]+)mm`)
)

type parser struct {
	load docbridge.Loader
}

func (p *parser) document(root *html.Node) (*cdm.Document, error) {
	doc := cdm.NewDocument()
	if head := find(root, atom.Head); head != nil {
		pageGeometry(doc, textContent(head))
	}
	body := find(root, atom.Body)
	if body == nil {
		return doc, nil
	}

	for c := body.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && (c.DataAtom == atom.Header || c.DataAtom == atom.Footer) {
			blocks, err := p.blocks(c)
			if err != nil {
				return nil, err
			}
			if c.DataAtom == atom.Header {
				doc.PageHeader = append(doc.PageHeader, blocks...)
			} else {
				doc.PageFooter = append(doc.PageFooter, blocks...)
			}
			body.RemoveChild(c)
		}
		c = next
	}

	blocks, err := p.blocks(body)
	if err != nil {
		return nil, err
	}
	doc.Body = blocks
	return doc, nil
}

func pageGeometry(doc *cdm.Document, css string) {
	if m := pageSizeRe.FindStringSubmatch(css); m != nil {
		doc.PageWidth = parseMM(m[1], doc.PageWidth)
		doc.PageHeight = parseMM(m[2], doc.PageHeight)
	}
	if m := pageMarginRe.FindStringSubmatch(css); m != nil {
		doc.MarginTop = parseMM(m[1], doc.MarginTop)
		doc.MarginRight = parseMM(m[2], doc.MarginRight)
		doc.MarginBottom = parseMM(m[3], doc.MarginBottom)
		doc.MarginLeft = parseMM(m[4], doc.MarginLeft)
	}
}

func parseMM(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := find(c, a); f != nil {
			return f
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func skipped(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Template, atom.Noscript, atom.Title:
		return true
	}
	return false
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.P, atom.Div, atom.Ul, atom.Ol, atom.Table, atom.Pre, atom.Hr,
		atom.Blockquote, atom.Section, atom.Article, atom.Main, atom.Nav, atom.Aside,
		atom.Header, atom.Footer, atom.Figure, atom.Dl, atom.Form, atom.Address, atom.Li:
		return true
	}
	return skipped(n)
}

// blocks converts the children of n, grouping inline runs between block
// children.
func (p *parser) blocks(n *html.Node) ([]cdm.Element, error) {
	var out, run []cdm.Element
	flush := func() {
		if merged := tidy(run); len(merged) > 0 {
			out = append(out, reconcile.Single(merged))
		}
		run = nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlock(c) {
			flush()
			elems, err := p.block(c)
			if err != nil {
				return nil, err
			}
			out = append(out, elems...)
			continue
		}
		elems, err := p.inline(c, 0)
		if err != nil {
			return nil, err
		}
		run = append(run, elems...)
	}
	flush()
	return out, nil
}

func (p *parser) block(n *html.Node) ([]cdm.Element, error) {
	if skipped(n) {
		return nil, nil
	}
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		text := strings.TrimSpace(spaceRe.ReplaceAllString(textContent(n), " "))
		return []cdm.Element{cdm.Header{Level: level, Text: text}}, nil
	case atom.P:
		run, err := p.inlineChildren(n, 0)
		if err != nil {
			return nil, err
		}
		if merged := tidy(run); len(merged) > 0 {
			return []cdm.Element{reconcile.Single(merged)}, nil
		}
		return nil, nil
	case atom.Div:
		children, err := p.blocks(n)
		if err != nil {
			return nil, err
		}
		if hasClass(n, "paragraph") {
			return []cdm.Element{cdm.Paragraph{Children: children}}, nil
		}
		return children, nil
	case atom.Ul, atom.Ol:
		l, err := p.list(n)
		if err != nil {
			return nil, err
		}
		return []cdm.Element{l}, nil
	case atom.Table:
		t, err := p.table(n)
		if err != nil {
			return nil, err
		}
		return []cdm.Element{t}, nil
	case atom.Pre:
		code := strings.TrimSuffix(strings.TrimPrefix(textContent(n), "\n"), "\n")
		return []cdm.Element{cdm.Paragraph{Children: []cdm.Element{cdm.T(code)}}}, nil
	case atom.Hr:
		return nil, nil
	default:
		return p.blocks(n)
	}
}

func (p *parser) inlineChildren(n *html.Node, size int) ([]cdm.Element, error) {
	var out []cdm.Element
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		elems, err := p.inline(c, size)
		if err != nil {
			return nil, err
		}
		out = append(out, elems...)
	}
	return out, nil
}

func (p *parser) inline(n *html.Node, size int) ([]cdm.Element, error) {
	switch n.Type {
	case html.TextNode:
		return []cdm.Element{cdm.Text{Content: spaceRe.ReplaceAllString(n.Data, " "), Size: reconcile.ClampSize(size)}}, nil
	case html.ElementNode:
	default:
		return nil, nil
	}
	if skipped(n) {
		return nil, nil
	}
	switch n.DataAtom {
	case atom.Strong, atom.B:
		return p.inlineChildren(n, size+2)
	case atom.Em, atom.I:
		return p.inlineChildren(n, size+1)
	case atom.Small:
		return p.inlineChildren(n, size-1)
	case atom.Br:
		return []cdm.Element{cdm.Text{Content: "\n", Size: reconcile.ClampSize(size)}}, nil
	case atom.A:
		href := attr(n, "href")
		if href == "" {
			return p.inlineChildren(n, size)
		}
		label := strings.TrimSpace(spaceRe.ReplaceAllString(textContent(n), " "))
		return []cdm.Element{cdm.Hyperlink{
			Title: label,
			URL:   href,
			Alt:   attr(n, "title"),
			Size:  reconcile.ClampSize(size),
		}}, nil
	case atom.Img:
		el, err := base.ImageRef(p.load, attr(n, "src"), attr(n, "title"), attr(n, "alt"))
		if err != nil {
			return nil, err
		}
		return []cdm.Element{el}, nil
	default:
		return p.inlineChildren(n, size)
	}
}

// tidy applies HTML whitespace collapsing across a run of inline elements.
func tidy(run []cdm.Element) []cdm.Element {
	out := make([]cdm.Element, 0, len(run))
	lastSpace := true
	for _, e := range run {
		t, ok := e.(cdm.Text)
		if !ok {
			out = append(out, e)
			lastSpace = false
			continue
		}
		s := t.Content
		if lastSpace {
			s = strings.TrimLeft(s, " ")
		}
		if s == "" {
			continue
		}
		lastSpace = strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")
		out = append(out, cdm.Text{Content: s, Size: t.Size})
	}
	for len(out) > 0 {
		t, ok := out[len(out)-1].(cdm.Text)
		if !ok {
			break
		}
		t.Content = strings.TrimRight(t.Content, " ")
		if t.Content != "" {
			out[len(out)-1] = t
			break
		}
		out = out[:len(out)-1]
	}
	merged := reconcile.MergeText(out)
	for i, e := range merged {
		if t, ok := e.(cdm.Text); ok {
			t.Content = strings.ReplaceAll(strings.ReplaceAll(t.Content, " \n", "\n"), "\n ", "\n")
			merged[i] = t
		}
	}
	return merged
}

func (p *parser) list(n *html.Node) (cdm.List, error) {
	l := cdm.List{Numbered: n.DataAtom == atom.Ol}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == atom.Ul || c.DataAtom == atom.Ol {
			sub, err := p.list(c)
			if err != nil {
				return cdm.List{}, err
			}
			l.Items = append(l.Items, cdm.ListItem{Element: sub})
			continue
		}
		if c.DataAtom != atom.Li {
			continue
		}
		blocks, err := p.blocks(c)
		if err != nil {
			return cdm.List{}, err
		}
		var content, nested []cdm.Element
		for _, b := range blocks {
			if sub, ok := b.(cdm.List); ok {
				nested = append(nested, sub)
			} else {
				content = append(content, b)
			}
		}
		if len(content) > 0 || len(nested) == 0 {
			l.Items = append(l.Items, cdm.ListItem{Element: group(content)})
		}
		for _, sub := range nested {
			l.Items = append(l.Items, cdm.ListItem{Element: sub})
		}
	}
	return l, nil
}

// group turns converted content into one element.
func group(elems []cdm.Element) cdm.Element {
	switch len(elems) {
	case 0:
		return reconcile.EmptyCell()
	case 1:
		return elems[0]
	default:
		return cdm.Paragraph{Children: elems}
	}
}

func (p *parser) table(n *html.Node) (cdm.Table, error) {
	var rows []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Tr:
				rows = append(rows, c)
			case atom.Thead, atom.Tbody, atom.Tfoot:
				collect(c)
			}
		}
	}
	collect(n)

	var t cdm.Table
	for i, tr := range rows {
		var cells []*html.Node
		allHeaders := true
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
				cells = append(cells, c)
				allHeaders = allHeaders && c.DataAtom == atom.Th
			}
		}
		if i == 0 && allHeaders && len(cells) > 0 {
			for _, c := range cells {
				el, err := p.cell(c)
				if err != nil {
					return cdm.Table{}, err
				}
				h := cdm.TableHeader{Element: el}
				if m := widthRe.FindStringSubmatch(attr(c, "style")); m != nil {
					h.Width = parseMM(m[1], 0)
				}
				t.Headers = append(t.Headers, h)
			}
			continue
		}
		row := cdm.TableRow{}
		for _, c := range cells {
			el, err := p.cell(c)
			if err != nil {
				return cdm.Table{}, err
			}
			row.Cells = append(row.Cells, cdm.TableCell{Element: el})
		}
		t.Rows = append(t.Rows, row)
	}
	return reconcile.Reconciled(t, nil, ""), nil
}

func (p *parser) cell(n *html.Node) (cdm.Element, error) {
	blocks, err := p.blocks(n)
	if err != nil {
		return nil, err
	}
	return group(blocks), nil
}
