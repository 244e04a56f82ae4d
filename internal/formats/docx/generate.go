package docx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/opc"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	corexml "github.com/FocuswithJustin/docbridge/core/xml"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

const (
	// fallbackWidth is the text width in millimetres used when the
	// document has no usable page geometry.
	fallbackWidth = 190.0

	// defaultImageSize is the edge length in millimetres of an image whose
	// header cannot be read.
	defaultImageSize = 50.0

	// maxListLevel is the deepest numbering level WordprocessingML defines.
	maxListLevel = 8
)

// part is one XML part being written together with its relationships.
type part struct {
	name string
	x    *corexml.Writer
	rels opc.RelationshipSet
	last string // "p" or "tbl", the last block element written
}

type media struct {
	name string
	data []byte
}

type writer struct {
	rep      *reconcile.Report
	width    float64
	names    base.ImageNamer
	media    []media
	lists    []bool // numbered flag of each numbering instance
	drawings int
}

func newWriter(doc *cdm.Document, rep *reconcile.Report) *writer {
	width := doc.ContentWidth()
	if width <= 0 {
		width = fallbackWidth
	}
	return &writer{rep: rep, width: width}
}

func twips(mm float64) string {
	return strconv.Itoa(reconcile.MMToTwips(mm))
}

func (w *writer) document(doc *cdm.Document) ([]byte, error) {
	main := &part{name: partDocument, x: corexml.NewWriter("")}
	main.rels.Add(relStyles, "styles.xml", false)
	main.rels.Add(relNumbering, "numbering.xml", false)

	var sections []*part
	var headerID, footerID string
	if len(doc.PageHeader) > 0 {
		hdr, err := w.section(partHeader, "w:hdr", doc.PageHeader, "page_header")
		if err != nil {
			return nil, err
		}
		headerID = main.rels.Add(relHeader, "header1.xml", false)
		sections = append(sections, hdr)
	}
	if len(doc.PageFooter) > 0 {
		ftr, err := w.section(partFooter, "w:ftr", doc.PageFooter, "page_footer")
		if err != nil {
			return nil, err
		}
		footerID = main.rels.Add(relFooter, "footer1.xml", false)
		sections = append(sections, ftr)
	}

	main.x.Start("w:document", rootNamespaces...)
	main.x.Start("w:body")
	if err := w.blocks(main, doc.Body, "body"); err != nil {
		return nil, err
	}
	main.x.Start("w:sectPr")
	if headerID != "" {
		main.x.Empty("w:headerReference", "w:type", "default", "r:id", headerID)
	}
	if footerID != "" {
		main.x.Empty("w:footerReference", "w:type", "default", "r:id", footerID)
	}
	main.x.Empty("w:pgSz", "w:w", twips(doc.PageWidth), "w:h", twips(doc.PageHeight))
	main.x.Empty("w:pgMar",
		"w:top", twips(doc.MarginTop), "w:right", twips(doc.MarginRight),
		"w:bottom", twips(doc.MarginBottom), "w:left", twips(doc.MarginLeft),
		"w:header", "0", "w:footer", "0", "w:gutter", "0")
	main.x.End("w:sectPr")
	main.x.End("w:body")
	main.x.End("w:document")

	return w.assemble(main, sections)
}

// section writes a header or footer part.
func (w *writer) section(name, root string, elems []cdm.Element, prefix string) (*part, error) {
	p := &part{name: name, x: corexml.NewWriter("")}
	p.x.Start(root, rootNamespaces...)
	if err := w.blocks(p, elems, prefix); err != nil {
		return nil, err
	}
	if p.last != "p" {
		p.x.Empty("w:p")
	}
	p.x.End(root)
	return p, nil
}

func (w *writer) assemble(main *part, sections []*part) ([]byte, error) {
	ct := opc.NewContentTypes()
	ct.Override(partDocument, ctMain)
	ct.Override(partStyles, ctStyles)
	ct.Override(partNumbering, ctNumbering)

	pkg := opc.NewWriter()
	add := func(name string, data []byte, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return pkg.Add(name, data)
	}

	var rootRels opc.RelationshipSet
	rootRels.Add(opc.TypeOfficeDocument, partDocument, false)

	for _, m := range w.media {
		if strings.HasSuffix(m.name, ".jpg") {
			ct.Default("jpg", "image/jpeg")
		} else {
			ct.Default("png", "image/png")
		}
	}
	for _, s := range sections {
		if s.name == partHeader {
			ct.Override(s.name, ctHeader)
		} else {
			ct.Override(s.name, ctFooter)
		}
	}

	data, err := ct.Bytes()
	if err := add("[Content_Types].xml", data, err); err != nil {
		return nil, err
	}
	data, err = rootRels.Bytes()
	if err := add(opc.RelsPath(""), data, err); err != nil {
		return nil, err
	}
	for _, p := range append([]*part{main}, sections...) {
		data, err := p.x.Bytes()
		if err := add(p.name, data, err); err != nil {
			return nil, err
		}
		if p.rels.Len() > 0 {
			data, err := p.rels.Bytes()
			if err := add(opc.RelsPath(p.name), data, err); err != nil {
				return nil, err
			}
		}
	}
	data, err = stylesPart()
	if err := add(partStyles, data, err); err != nil {
		return nil, err
	}
	data, err = numberingPart(w.lists)
	if err := add(partNumbering, data, err); err != nil {
		return nil, err
	}
	for _, m := range w.media {
		if err := pkg.Add("word/media/"+m.name, m.data); err != nil {
			return nil, err
		}
	}
	return pkg.Bytes()
}

func (w *writer) blocks(p *part, elems []cdm.Element, prefix string) error {
	for i, e := range elems {
		if err := w.block(p, e, fmt.Sprintf("%s[%d]", prefix, i)); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) block(p *part, e cdm.Element, path string) error {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Header:
		w.heading(p, reconcile.Heading(v, w.rep, path))
		return nil
	case cdm.Text, cdm.Hyperlink, cdm.Image:
		p.x.Start("w:p")
		if err := w.inline(p, v, path); err != nil {
			return err
		}
		p.x.End("w:p")
		p.last = "p"
		return nil
	case cdm.Paragraph:
		return w.paragraph(p, v, path)
	case cdm.List:
		return w.list(p, v, path, 0)
	case cdm.Table:
		return w.table(p, v, path)
	default:
		return base.UnknownElementError(Name, path, e)
	}
}

func (w *writer) heading(p *part, h cdm.Header) {
	p.x.Start("w:p")
	p.x.Start("w:pPr")
	p.x.Empty("w:pStyle", "w:val", "Heading"+strconv.Itoa(h.Level))
	p.x.End("w:pPr")
	w.run(p, reconcile.Style{Bold: true}, reconcile.PointsForHeading(h.Level), h.Text, "")
	p.x.End("w:p")
	p.last = "p"
}

// paragraph writes runs of inline children as one w:p and block children
// as separate blocks.
func (w *writer) paragraph(p *part, para cdm.Paragraph, path string) error {
	open := false
	parts := 0
	for i, c := range para.Children {
		cpath := fmt.Sprintf("%s.children[%d]", path, i)
		if cdm.IsInline(c) {
			if !open {
				p.x.Start("w:p")
				open = true
			}
			if err := w.inline(p, c, cpath); err != nil {
				return err
			}
			continue
		}
		if open {
			p.x.End("w:p")
			p.last = "p"
			open = false
			parts++
		}
		if err := w.block(p, c, cpath); err != nil {
			return err
		}
		parts++
	}
	if open {
		p.x.End("w:p")
		p.last = "p"
		parts++
	}
	if parts > 1 {
		w.rep.Add(reconcile.Degraded, path, "paragraph with block children split into separate blocks")
	}
	return nil
}

// inline writes the runs of an inline element, flattening block elements
// to body text.
func (w *writer) inline(p *part, e cdm.Element, path string) error {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Text:
		w.run(p, reconcile.StyleOf(v.Size), reconcile.PointsForSize(v.Size), v.Content, "")
	case cdm.Hyperlink:
		st, pt := reconcile.StyleOf(v.Size), reconcile.PointsForSize(v.Size)
		if v.URL == "" {
			w.rep.Add(reconcile.Degraded, path, "hyperlink without target written as text")
			w.run(p, st, pt, v.Title, "")
			return nil
		}
		attrs := []string{"r:id", p.rels.Add(relHyperlink, v.URL, true)}
		if v.Alt != "" {
			attrs = append(attrs, "w:tooltip", v.Alt)
		}
		p.x.Start("w:hyperlink", attrs...)
		w.run(p, st, pt, v.Title, "Hyperlink")
		p.x.End("w:hyperlink")
	case cdm.Image:
		w.drawing(p, v)
	case cdm.Paragraph:
		for i, c := range v.Children {
			if err := w.inline(p, c, fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
				return err
			}
		}
	case cdm.Header, cdm.List, cdm.Table:
		w.rep.Addf(reconcile.Degraded, path, "%s flattened to inline text", v.Kind())
		w.run(p, reconcile.Style{}, reconcile.BodyPoints, reconcile.PlainText(v), "")
	default:
		return base.UnknownElementError(Name, path, e)
	}
	return nil
}

// run writes one w:r. Line breaks and tabs become w:br and w:tab.
func (w *writer) run(p *part, st reconcile.Style, pt float64, text, style string) {
	p.x.Start("w:r")
	p.x.Start("w:rPr")
	if style != "" {
		p.x.Empty("w:rStyle", "w:val", style)
	}
	if st.Bold {
		p.x.Empty("w:b")
	}
	if st.Italic {
		p.x.Empty("w:i")
	}
	sz := strconv.Itoa(int(pt*2 + 0.5))
	p.x.Empty("w:sz", "w:val", sz)
	p.x.Empty("w:szCs", "w:val", sz)
	p.x.End("w:rPr")

	var seg strings.Builder
	flush := func() {
		if seg.Len() > 0 {
			p.x.Field("w:t", seg.String(), "xml:space", "preserve")
			seg.Reset()
		}
	}
	for _, r := range text {
		switch r {
		case '\n':
			flush()
			p.x.Empty("w:br")
		case '\t':
			flush()
			p.x.Empty("w:tab")
		case '\r':
		default:
			seg.WriteRune(r)
		}
	}
	flush()
	p.x.End("w:r")
}

func (w *writer) drawing(p *part, img cdm.Image) {
	name := w.names.Next(img)
	w.media = append(w.media, media{name: name, data: img.Bytes})
	id := p.rels.Add(relImage, "media/"+name, false)

	width, height, ok := base.FitImage(img, w.width)
	if !ok {
		width, height = defaultImageSize, defaultImageSize
	}
	cx := strconv.Itoa(int(width * emuPerMM))
	cy := strconv.Itoa(int(height * emuPerMM))
	w.drawings++
	docID := strconv.Itoa(w.drawings)

	x := p.x
	x.Start("w:r")
	x.Start("w:drawing")
	x.Start("wp:inline", "distT", "0", "distB", "0", "distL", "0", "distR", "0")
	x.Empty("wp:extent", "cx", cx, "cy", cy)
	docPr := []string{"id", docID, "name", "Picture " + docID}
	if img.Alt != "" {
		docPr = append(docPr, "descr", img.Alt)
	}
	if img.Title != "" {
		docPr = append(docPr, "title", img.Title)
	}
	x.Empty("wp:docPr", docPr...)
	x.Start("a:graphic")
	x.Start("a:graphicData", "uri", nsPic)
	x.Start("pic:pic")
	x.Start("pic:nvPicPr")
	x.Empty("pic:cNvPr", "id", docID, "name", name)
	x.Empty("pic:cNvPicPr")
	x.End("pic:nvPicPr")
	x.Start("pic:blipFill")
	x.Empty("a:blip", "r:embed", id)
	x.Start("a:stretch")
	x.Empty("a:fillRect")
	x.End("a:stretch")
	x.End("pic:blipFill")
	x.Start("pic:spPr")
	x.Start("a:xfrm")
	x.Empty("a:off", "x", "0", "y", "0")
	x.Empty("a:ext", "cx", cx, "cy", cy)
	x.End("a:xfrm")
	x.Start("a:prstGeom", "prst", "rect")
	x.Empty("a:avLst")
	x.End("a:prstGeom")
	x.End("pic:spPr")
	x.End("pic:pic")
	x.End("a:graphicData")
	x.End("a:graphic")
	x.End("wp:inline")
	x.End("w:drawing")
	x.End("w:r")
}

// list writes one numbered paragraph per item. Every List gets its own
// numbering instance so that numbering restarts and sibling lists stay
// apart.
func (w *writer) list(p *part, l cdm.List, path string, depth int) error {
	if len(l.Items) == 0 {
		return nil
	}
	w.lists = append(w.lists, l.Numbered)
	numID := strconv.Itoa(len(w.lists))
	level := depth
	if level > maxListLevel {
		w.rep.Addf(reconcile.Degraded, path, "list nested %d levels deep written at level %d", depth+1, maxListLevel+1)
		level = maxListLevel
	}
	for i, it := range l.Items {
		ipath := fmt.Sprintf("%s.items[%d].element", path, i)
		if nested, ok := it.Element.(cdm.List); ok {
			if err := w.list(p, nested, ipath, depth+1); err != nil {
				return err
			}
			continue
		}
		p.x.Start("w:p")
		p.x.Start("w:pPr")
		p.x.Empty("w:pStyle", "w:val", "ListParagraph")
		p.x.Start("w:numPr")
		p.x.Empty("w:ilvl", "w:val", strconv.Itoa(level))
		p.x.Empty("w:numId", "w:val", numID)
		p.x.End("w:numPr")
		p.x.End("w:pPr")
		if err := w.inline(p, it.Element, ipath); err != nil {
			return err
		}
		p.x.End("w:p")
		p.last = "p"
	}
	return nil
}

func (w *writer) table(p *part, t cdm.Table, path string) error {
	g := reconcile.Rectangular(t, w.rep, path)
	if g.Columns() == 0 {
		w.rep.Add(reconcile.Dropped, path, "table has no columns")
		return nil
	}
	widths := make([]string, g.Columns())
	for i, width := range g.Widths {
		if width <= 0 {
			width = w.width / float64(g.Columns())
		}
		widths[i] = twips(width)
	}

	p.x.Start("w:tbl")
	p.x.Start("w:tblPr")
	p.x.Empty("w:tblStyle", "w:val", "TableGrid")
	p.x.Empty("w:tblW", "w:w", "0", "w:type", "auto")
	p.x.End("w:tblPr")
	p.x.Start("w:tblGrid")
	for _, tw := range widths {
		p.x.Empty("w:gridCol", "w:w", tw)
	}
	p.x.End("w:tblGrid")

	row := func(cells []cdm.Element, header bool, cellPath func(int) string) error {
		p.x.Start("w:tr")
		if header {
			p.x.Start("w:trPr")
			p.x.Empty("w:tblHeader")
			p.x.End("w:trPr")
		}
		for i, c := range cells {
			p.x.Start("w:tc")
			p.x.Start("w:tcPr")
			p.x.Empty("w:tcW", "w:w", widths[i], "w:type", "dxa")
			p.x.End("w:tcPr")
			p.last = ""
			if err := w.block(p, c, cellPath(i)); err != nil {
				return err
			}
			if p.last != "p" {
				p.x.Empty("w:p")
			}
			p.x.End("w:tc")
		}
		p.x.End("w:tr")
		return nil
	}

	if err := row(g.Headers, true, func(i int) string {
		return fmt.Sprintf("%s.headers[%d].element", path, i)
	}); err != nil {
		return err
	}
	for r, cells := range g.Rows {
		if err := row(cells, false, func(i int) string {
			return fmt.Sprintf("%s.rows[%d].cells[%d].element", path, r, i)
		}); err != nil {
			return err
		}
	}
	p.x.End("w:tbl")
	p.last = "tbl"
	return nil
}
