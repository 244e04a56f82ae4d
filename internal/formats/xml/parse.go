package xml

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	corexml "github.com/FocuswithJustin/docbridge/core/xml"
)

func invalid(path, format string, args ...interface{}) error {
	return errors.NewParse(Name, 0, path+": "+fmt.Sprintf(format, args...))
}

// shape checks that n carries only the allowed attributes and child
// elements, each at most once, and no stray text.
func shape(n *corexml.Node, path string, attrs, children []string) (map[string]string, map[string]*corexml.Node, error) {
	if n.Prefix() != "" {
		return nil, nil, invalid(path, "unexpected namespace prefix %q", n.Prefix())
	}
	av := make(map[string]string)
	for _, a := range n.Attributes() {
		if a.Prefix != "" || !contains(attrs, a.Name) {
			return nil, nil, invalid(path, "unknown attribute %q on <%s>", a.Name, n.Name())
		}
		av[a.Name] = a.Value
	}
	cv := make(map[string]*corexml.Node)
	for _, c := range n.Children() {
		if c.Prefix() != "" || !contains(children, c.Name()) {
			return nil, nil, invalid(path, "unknown element <%s> in <%s>", c.Name(), n.Name())
		}
		if _, dup := cv[c.Name()]; dup {
			return nil, nil, invalid(path, "duplicate <%s> in <%s>", c.Name(), n.Name())
		}
		cv[c.Name()] = c
	}
	if n.HasText() {
		return nil, nil, invalid(path, "unexpected text in <%s>", n.Name())
	}
	return av, cv, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func intAttr(av map[string]string, name, path string) (int, error) {
	s, ok := av[name]
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid(path, "%s: %q is not an integer", name, s)
	}
	return n, nil
}

func floatAttr(av map[string]string, name, path string) (float64, error) {
	s, ok := av[name]
	if !ok {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalid(path, "%s: %q is not a number", name, s)
	}
	return f, nil
}

func boolAttr(av map[string]string, name, path string) (bool, error) {
	s, ok := av[name]
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, invalid(path, "%s: %q is not a boolean", name, s)
	}
	return b, nil
}

// str returns the text of a string field; a missing field is empty.
func str(cv map[string]*corexml.Node, name, path string) (string, error) {
	c := cv[name]
	if c == nil {
		return "", nil
	}
	if len(c.Children()) > 0 || len(c.Attributes()) > 0 {
		return "", invalid(path, "<%s> must contain only text", name)
	}
	return c.Text(), nil
}

func readDocument(root *corexml.Node) (*cdm.Document, error) {
	if root == nil || root.Name() != "document" {
		return nil, invalid("document", "root element must be <document>")
	}
	av, cv, err := shape(root, "document",
		[]string{"page_width", "page_height", "margin_top", "margin_bottom", "margin_left", "margin_right"},
		[]string{"body", "page_header", "page_footer"})
	if err != nil {
		return nil, err
	}
	doc := &cdm.Document{}
	for _, g := range []struct {
		name string
		dst  *float64
	}{
		{"page_width", &doc.PageWidth},
		{"page_height", &doc.PageHeight},
		{"margin_top", &doc.MarginTop},
		{"margin_bottom", &doc.MarginBottom},
		{"margin_left", &doc.MarginLeft},
		{"margin_right", &doc.MarginRight},
	} {
		if *g.dst, err = floatAttr(av, g.name, "document"); err != nil {
			return nil, err
		}
	}
	if doc.Body, err = readCollection(cv["body"], "body"); err != nil {
		return nil, err
	}
	if doc.PageHeader, err = readCollection(cv["page_header"], "page_header"); err != nil {
		return nil, err
	}
	if doc.PageFooter, err = readCollection(cv["page_footer"], "page_footer"); err != nil {
		return nil, err
	}
	return doc, nil
}

func readCollection(n *corexml.Node, prefix string) ([]cdm.Element, error) {
	if n == nil {
		return nil, nil
	}
	if n.HasText() || len(n.Attributes()) > 0 {
		return nil, invalid(prefix, "<%s> must contain only elements", n.Name())
	}
	var out []cdm.Element
	for i, c := range n.Children() {
		e, err := readElement(c, fmt.Sprintf("%s[%d]", prefix, i))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// readSingle reads the one element inside an <element> wrapper.
func readSingle(n *corexml.Node, path string) (cdm.Element, error) {
	if n == nil {
		return nil, invalid(path, "missing <element>")
	}
	kids := n.Children()
	if len(kids) != 1 || n.HasText() || len(n.Attributes()) > 0 {
		return nil, invalid(path, "<element> must contain exactly one element")
	}
	return readElement(kids[0], path)
}

// entries returns the children of a wrapper, each of which must be named
// entry.
func entries(n *corexml.Node, entry, path string) ([]*corexml.Node, error) {
	if n == nil {
		return nil, nil
	}
	if n.HasText() || len(n.Attributes()) > 0 {
		return nil, invalid(path, "<%s> must contain only elements", n.Name())
	}
	kids := n.Children()
	for _, k := range kids {
		if k.Prefix() != "" || k.Name() != entry {
			return nil, invalid(path, "unknown element <%s> in <%s>", k.Name(), n.Name())
		}
	}
	return kids, nil
}

func readElement(n *corexml.Node, path string) (cdm.Element, error) {
	kind, ok := cdm.KindFromString(n.Name())
	if !ok {
		return nil, invalid(path, "unknown element type <%s>", n.Name())
	}
	switch kind {
	case cdm.KindText:
		av, cv, err := shape(n, path, []string{"size"}, []string{"content"})
		if err != nil {
			return nil, err
		}
		t := cdm.Text{}
		if t.Size, err = intAttr(av, "size", path); err != nil {
			return nil, err
		}
		if t.Content, err = str(cv, "content", path); err != nil {
			return nil, err
		}
		return t, nil

	case cdm.KindHeader:
		av, cv, err := shape(n, path, []string{"level"}, []string{"text"})
		if err != nil {
			return nil, err
		}
		h := cdm.Header{}
		if h.Level, err = intAttr(av, "level", path); err != nil {
			return nil, err
		}
		if h.Text, err = str(cv, "text", path); err != nil {
			return nil, err
		}
		return h, nil

	case cdm.KindParagraph:
		_, cv, err := shape(n, path, nil, []string{"children"})
		if err != nil {
			return nil, err
		}
		children, err := readCollection(cv["children"], path+".children")
		if err != nil {
			return nil, err
		}
		return cdm.Paragraph{Children: children}, nil

	case cdm.KindTable:
		_, cv, err := shape(n, path, nil, []string{"headers", "rows"})
		if err != nil {
			return nil, err
		}
		t := cdm.Table{}
		headers, err := entries(cv["headers"], "TableHeader", path+".headers")
		if err != nil {
			return nil, err
		}
		for i, hn := range headers {
			hpath := fmt.Sprintf("%s.headers[%d]", path, i)
			hav, hcv, err := shape(hn, hpath, []string{"width"}, []string{"element"})
			if err != nil {
				return nil, err
			}
			width, err := floatAttr(hav, "width", hpath)
			if err != nil {
				return nil, err
			}
			e, err := readSingle(hcv["element"], hpath+".element")
			if err != nil {
				return nil, err
			}
			t.Headers = append(t.Headers, cdm.TableHeader{Element: e, Width: width})
		}
		rows, err := entries(cv["rows"], "TableRow", path+".rows")
		if err != nil {
			return nil, err
		}
		for r, rn := range rows {
			rpath := fmt.Sprintf("%s.rows[%d]", path, r)
			_, rcv, err := shape(rn, rpath, nil, []string{"cells"})
			if err != nil {
				return nil, err
			}
			cells, err := entries(rcv["cells"], "TableCell", rpath+".cells")
			if err != nil {
				return nil, err
			}
			row := cdm.TableRow{}
			for i, cn := range cells {
				cpath := fmt.Sprintf("%s.cells[%d]", rpath, i)
				_, ccv, err := shape(cn, cpath, nil, []string{"element"})
				if err != nil {
					return nil, err
				}
				e, err := readSingle(ccv["element"], cpath+".element")
				if err != nil {
					return nil, err
				}
				row.Cells = append(row.Cells, cdm.TableCell{Element: e})
			}
			t.Rows = append(t.Rows, row)
		}
		return t, nil

	case cdm.KindList:
		av, cv, err := shape(n, path, []string{"numbered"}, []string{"items"})
		if err != nil {
			return nil, err
		}
		l := cdm.List{}
		if l.Numbered, err = boolAttr(av, "numbered", path); err != nil {
			return nil, err
		}
		items, err := entries(cv["items"], "ListItem", path+".items")
		if err != nil {
			return nil, err
		}
		for i, in := range items {
			ipath := fmt.Sprintf("%s.items[%d]", path, i)
			_, icv, err := shape(in, ipath, nil, []string{"element"})
			if err != nil {
				return nil, err
			}
			e, err := readSingle(icv["element"], ipath+".element")
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, cdm.ListItem{Element: e})
		}
		return l, nil

	case cdm.KindImage:
		av, cv, err := shape(n, path, []string{"encoding"}, []string{"bytes", "title", "alt"})
		if err != nil {
			return nil, err
		}
		img := cdm.Image{Encoding: cdm.ImageEncoding(av["encoding"])}
		encoded, err := str(cv, "bytes", path)
		if err != nil {
			return nil, err
		}
		if img.Bytes, err = base64.StdEncoding.DecodeString(encoded); err != nil {
			return nil, invalid(path, "bytes: %v", err)
		}
		if img.Title, err = str(cv, "title", path); err != nil {
			return nil, err
		}
		if img.Alt, err = str(cv, "alt", path); err != nil {
			return nil, err
		}
		return img, nil

	case cdm.KindHyperlink:
		av, cv, err := shape(n, path, []string{"size"}, []string{"title", "url", "alt"})
		if err != nil {
			return nil, err
		}
		l := cdm.Hyperlink{}
		if l.Size, err = intAttr(av, "size", path); err != nil {
			return nil, err
		}
		if l.Title, err = str(cv, "title", path); err != nil {
			return nil, err
		}
		if l.URL, err = str(cv, "url", path); err != nil {
			return nil, err
		}
		if l.Alt, err = str(cv, "alt", path); err != nil {
			return nil, err
		}
		return l, nil
	}
	return nil, invalid(path, "unhandled element type <%s>", n.Name())
}
