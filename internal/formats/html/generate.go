package html

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

type writer struct {
	rep   *reconcile.Report
	save  docbridge.Saver
	names base.ImageNamer
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendAll(parent *html.Node, children []*html.Node) {
	for _, c := range children {
		parent.AppendChild(c)
	}
}

func mm(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + "mm"
}

func (w *writer) document(doc *cdm.Document) (*html.Node, error) {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	htmlEl := element(atom.Html)
	root.AppendChild(htmlEl)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, "charset", "utf-8"))
	style := element(atom.Style)
	style.AppendChild(textNode(fmt.Sprintf("@page { size: %s %s; margin: %s %s %s %s; }",
		mm(doc.PageWidth), mm(doc.PageHeight),
		mm(doc.MarginTop), mm(doc.MarginRight), mm(doc.MarginBottom), mm(doc.MarginLeft))))
	head.AppendChild(style)
	htmlEl.AppendChild(head)

	body := element(atom.Body)
	htmlEl.AppendChild(body)

	if len(doc.PageHeader) > 0 {
		header := element(atom.Header)
		if err := w.blocks(header, doc.PageHeader, "page_header"); err != nil {
			return nil, err
		}
		body.AppendChild(header)
		body.AppendChild(textNode("\n"))
	}
	if err := w.blocks(body, doc.Body, "body"); err != nil {
		return nil, err
	}
	if len(doc.PageFooter) > 0 {
		footer := element(atom.Footer)
		if err := w.blocks(footer, doc.PageFooter, "page_footer"); err != nil {
			return nil, err
		}
		body.AppendChild(footer)
		body.AppendChild(textNode("\n"))
	}
	return root, nil
}

func (w *writer) blocks(parent *html.Node, elems []cdm.Element, prefix string) error {
	for i, e := range elems {
		n, err := w.block(e, fmt.Sprintf("%s[%d]", prefix, i))
		if err != nil {
			return err
		}
		if n != nil {
			parent.AppendChild(n)
			parent.AppendChild(textNode("\n"))
		}
	}
	return nil
}

func (w *writer) block(e cdm.Element, path string) (*html.Node, error) {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Header:
		h := reconcile.Heading(v, w.rep, path)
		n := element(atom.Lookup([]byte("h" + strconv.Itoa(h.Level))))
		n.AppendChild(textNode(h.Text))
		return n, nil
	case cdm.Text, cdm.Hyperlink, cdm.Image:
		p := element(atom.P)
		nodes, err := w.inline(v, path)
		if err != nil {
			return nil, err
		}
		appendAll(p, nodes)
		return p, nil
	case cdm.Paragraph:
		return w.paragraph(v, path)
	case cdm.List:
		return w.list(v, path)
	case cdm.Table:
		return w.table(v, path)
	default:
		return nil, base.UnknownElementError(Name, path, e)
	}
}

func allInline(elems []cdm.Element) bool {
	for _, e := range elems {
		if !cdm.IsInline(e) {
			if p, ok := e.(cdm.Paragraph); !ok || !allInline(p.Children) {
				return false
			}
		}
	}
	return true
}

func (w *writer) paragraph(p cdm.Paragraph, path string) (*html.Node, error) {
	if allInline(p.Children) {
		n := element(atom.P)
		nodes, err := w.inline(p, path)
		if err != nil {
			return nil, err
		}
		appendAll(n, nodes)
		return n, nil
	}
	div := element(atom.Div, "class", "paragraph")
	for i, c := range p.Children {
		nodes, err := w.content(c, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		appendAll(div, nodes)
	}
	return div, nil
}

// content renders an element inside a container that accepts both inline
// and block children.
func (w *writer) content(e cdm.Element, path string) ([]*html.Node, error) {
	c := reconcile.Collapse(e)
	if cdm.IsInline(c) {
		return w.inline(c, path)
	}
	if p, ok := c.(cdm.Paragraph); ok && allInline(p.Children) {
		return w.inline(p, path)
	}
	n, err := w.block(c, path)
	if err != nil || n == nil {
		return nil, err
	}
	return []*html.Node{n}, nil
}

func wrapSize(nodes []*html.Node, size int) []*html.Node {
	st := reconcile.StyleOf(size)
	wrap := func(a atom.Atom) {
		n := element(a)
		appendAll(n, nodes)
		nodes = []*html.Node{n}
	}
	switch {
	case st.Small:
		wrap(atom.Small)
	case st.Bold && st.Italic:
		wrap(atom.Em)
		wrap(atom.Strong)
	case st.Bold:
		wrap(atom.Strong)
	case st.Italic:
		wrap(atom.Em)
	}
	return nodes
}

func (w *writer) inline(e cdm.Element, path string) ([]*html.Node, error) {
	switch v := e.(type) {
	case cdm.Text:
		if v.Content == "" {
			return nil, nil
		}
		var nodes []*html.Node
		for i, line := range strings.Split(v.Content, "\n") {
			if i > 0 {
				nodes = append(nodes, element(atom.Br))
			}
			if line != "" {
				nodes = append(nodes, textNode(line))
			}
		}
		return wrapSize(nodes, v.Size), nil
	case cdm.Hyperlink:
		a := element(atom.A, "href", v.URL)
		if v.Alt != "" {
			a.Attr = append(a.Attr, html.Attribute{Key: "title", Val: v.Alt})
		}
		a.AppendChild(textNode(v.Title))
		return wrapSize([]*html.Node{a}, v.Size), nil
	case cdm.Image:
		src, err := base.ImageTarget(w.save, &w.names, v)
		if err != nil {
			return nil, err
		}
		img := element(atom.Img, "src", src, "alt", v.Alt)
		if v.Title != "" {
			img.Attr = append(img.Attr, html.Attribute{Key: "title", Val: v.Title})
		}
		return []*html.Node{img}, nil
	case cdm.Paragraph:
		var nodes []*html.Node
		for i, c := range v.Children {
			sub, err := w.inline(c, fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, sub...)
		}
		return nodes, nil
	case cdm.Header, cdm.List, cdm.Table:
		w.rep.Addf(reconcile.Degraded, path, "%s flattened to inline text", v.Kind())
		return []*html.Node{textNode(reconcile.PlainText(v))}, nil
	default:
		return nil, base.UnknownElementError(Name, path, e)
	}
}

func (w *writer) list(l cdm.List, path string) (*html.Node, error) {
	n := element(atom.Ul)
	if l.Numbered {
		n = element(atom.Ol)
	}
	var last *html.Node
	for i, it := range l.Items {
		ipath := fmt.Sprintf("%s.items[%d].element", path, i)
		if nested, ok := it.Element.(cdm.List); ok {
			sub, err := w.list(nested, ipath)
			if err != nil {
				return nil, err
			}
			if last == nil {
				last = element(atom.Li)
				n.AppendChild(last)
			}
			last.AppendChild(sub)
			continue
		}
		li := element(atom.Li)
		nodes, err := w.content(it.Element, ipath)
		if err != nil {
			return nil, err
		}
		appendAll(li, nodes)
		n.AppendChild(li)
		last = li
	}
	return n, nil
}

func (w *writer) table(t cdm.Table, path string) (*html.Node, error) {
	g := reconcile.Rectangular(t, w.rep, path)
	if g.Columns() == 0 {
		w.rep.Add(reconcile.Dropped, path, "table has no columns")
		return nil, nil
	}
	table := element(atom.Table)
	thead := element(atom.Thead)
	tr := element(atom.Tr)
	for i, h := range g.Headers {
		th := element(atom.Th)
		if g.Widths[i] > 0 {
			th.Attr = append(th.Attr, html.Attribute{Key: "style", Val: "width: " + mm(g.Widths[i])})
		}
		nodes, err := w.content(h, fmt.Sprintf("%s.headers[%d].element", path, i))
		if err != nil {
			return nil, err
		}
		appendAll(th, nodes)
		tr.AppendChild(th)
	}
	thead.AppendChild(tr)
	table.AppendChild(thead)

	tbody := element(atom.Tbody)
	for r, row := range g.Rows {
		tr := element(atom.Tr)
		for i, c := range row {
			td := element(atom.Td)
			nodes, err := w.content(c, fmt.Sprintf("%s.rows[%d].cells[%d].element", path, r, i))
			if err != nil {
				return nil, err
			}
			appendAll(td, nodes)
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	return table, nil
}
