package docx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/opc"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	corexml "github.com/FocuswithJustin/docbridge/core/xml"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Geometry assumed when the document has no w:sectPr, in twips.
const (
	defaultPageWidth  = 12240
	defaultPageHeight = 15840
	defaultMargin     = 1440
)

var (
	headingStyleRe = regexp.MustCompile(`^heading ?([1-9])$`)
	listStyleRe    = regexp.MustCompile(`^list ?(bullet|number) ?([2-9])?$`)
)

// styleInfo is what a paragraph style contributes to classification.
type styleInfo struct {
	heading  int
	list     bool
	numbered bool
	numID    string
	level    int
}

// source is the part being read and its relationships.
type source struct {
	name string
	rels map[string]opc.Relationship
}

type reader struct {
	pkg       *opc.Package
	styles    map[string]styleInfo
	numbering map[string]map[int]bool // numId -> level -> numbered
}

func newReader(pkg *opc.Package) *reader {
	return &reader{pkg: pkg}
}

func (r *reader) document() (*cdm.Document, error) {
	main, err := r.pkg.MainPart(partDocument)
	if err != nil {
		return nil, err
	}
	if _, ok := r.pkg.Part(main); !ok {
		return nil, errors.NewParse(Name, 0, "missing main document part "+main)
	}
	src, err := r.source(main)
	if err != nil {
		return nil, err
	}
	tree, err := r.pkg.XML(main)
	if err != nil {
		return nil, err
	}
	root := tree.Root()
	if !root.IsNS(nsW, "document") {
		return nil, errors.NewParse(Name, 0, "root element of "+main+" is not w:document")
	}
	body := root.ChildNS(nsW, "body")
	if body == nil {
		return nil, errors.NewParse(Name, 0, "w:document has no w:body")
	}
	if err := r.loadStyles(src); err != nil {
		return nil, err
	}
	if err := r.loadNumbering(src); err != nil {
		return nil, err
	}

	doc := &cdm.Document{Body: r.blocks(src, body)}
	sect := body.ChildNS(nsW, "sectPr")
	if sect == nil {
		sect = body.DescendantNS(nsW, "sectPr")
	}
	r.geometry(doc, sect)
	if sect != nil {
		if doc.PageHeader, err = r.section(src, sect, "headerReference"); err != nil {
			return nil, err
		}
		if doc.PageFooter, err = r.section(src, sect, "footerReference"); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (r *reader) source(name string) (source, error) {
	rels, err := r.pkg.Relationships(name)
	if err != nil {
		return source{}, err
	}
	return source{name: name, rels: rels}, nil
}

// related returns the lowest part name targeted by an internal relationship
// of type typ, or "".
func related(src source, typ string) string {
	best := ""
	for _, rel := range src.rels {
		if rel.Type == typ && !rel.External {
			target := opc.ResolveTarget(src.name, rel.Target)
			if best == "" || target < best {
				best = target
			}
		}
	}
	return best
}

func (r *reader) loadStyles(src source) error {
	r.styles = make(map[string]styleInfo)
	name := related(src, relStyles)
	if name == "" {
		name = partStyles
	}
	if _, ok := r.pkg.Part(name); !ok {
		return nil
	}
	tree, err := r.pkg.XML(name)
	if err != nil {
		return err
	}
	for _, s := range tree.Root().ChildrenNS(nsW, "style") {
		if s.AttrValueNS(nsW, "type") != "paragraph" {
			continue
		}
		id := s.AttrValueNS(nsW, "styleId")
		info := classifyStyle(id, s.ChildNS(nsW, "name").AttrValueNS(nsW, "val"))
		if numPr := s.ChildNS(nsW, "pPr").ChildNS(nsW, "numPr"); numPr != nil {
			info.list = true
			info.numID = numPr.ChildNS(nsW, "numId").AttrValueNS(nsW, "val")
			info.level = atoi(numPr.ChildNS(nsW, "ilvl").AttrValueNS(nsW, "val"))
		}
		r.styles[id] = info
	}
	return nil
}

// classifyStyle recognises heading and list styles by name or ID.
func classifyStyle(id, name string) styleInfo {
	var info styleInfo
	for _, s := range []string{strings.ToLower(name), strings.ToLower(id)} {
		if s == "title" {
			info.heading = 1
			return info
		}
		if m := headingStyleRe.FindStringSubmatch(s); m != nil {
			info.heading = reconcile.ClampHeading(atoi(m[1]))
			return info
		}
		if m := listStyleRe.FindStringSubmatch(s); m != nil {
			info.list = true
			info.numbered = m[1] == "number"
			if m[2] != "" {
				info.level = atoi(m[2]) - 1
			}
			return info
		}
	}
	return info
}

func (r *reader) style(id string) styleInfo {
	if info, ok := r.styles[id]; ok {
		return info
	}
	return classifyStyle(id, "")
}

func (r *reader) loadNumbering(src source) error {
	r.numbering = make(map[string]map[int]bool)
	name := related(src, relNumbering)
	if name == "" {
		name = partNumbering
	}
	if _, ok := r.pkg.Part(name); !ok {
		return nil
	}
	tree, err := r.pkg.XML(name)
	if err != nil {
		return err
	}
	abstract := make(map[string]map[int]bool)
	for _, a := range tree.Root().ChildrenNS(nsW, "abstractNum") {
		levels := make(map[int]bool)
		for _, lvl := range a.ChildrenNS(nsW, "lvl") {
			levels[atoi(lvl.AttrValueNS(nsW, "ilvl"))] = isNumberFormat(lvl.ChildNS(nsW, "numFmt").AttrValueNS(nsW, "val"))
		}
		abstract[a.AttrValueNS(nsW, "abstractNumId")] = levels
	}
	for _, n := range tree.Root().ChildrenNS(nsW, "num") {
		levels := make(map[int]bool)
		for l, numbered := range abstract[n.ChildNS(nsW, "abstractNumId").AttrValueNS(nsW, "val")] {
			levels[l] = numbered
		}
		for _, o := range n.ChildrenNS(nsW, "lvlOverride") {
			if lvl := o.ChildNS(nsW, "lvl"); lvl != nil {
				levels[atoi(o.AttrValueNS(nsW, "ilvl"))] = isNumberFormat(lvl.ChildNS(nsW, "numFmt").AttrValueNS(nsW, "val"))
			}
		}
		r.numbering[n.AttrValueNS(nsW, "numId")] = levels
	}
	return nil
}

func isNumberFormat(f string) bool {
	return f != "" && f != "bullet" && f != "none"
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// geometry reads w:pgSz and w:pgMar, falling back to US Letter with one
// inch margins.
func (r *reader) geometry(doc *cdm.Document, sect *corexml.Node) {
	width, height := defaultPageWidth, defaultPageHeight
	top, bottom, left, right := defaultMargin, defaultMargin, defaultMargin, defaultMargin
	value := func(n *corexml.Node, attr string, dst *int) {
		if v, ok := n.AttrNS(nsW, attr); ok {
			if i, err := strconv.Atoi(v); err == nil {
				if i < 0 {
					i = -i
				}
				*dst = i
			}
		}
	}
	if sz := sect.ChildNS(nsW, "pgSz"); sz != nil {
		value(sz, "w", &width)
		value(sz, "h", &height)
	}
	if mar := sect.ChildNS(nsW, "pgMar"); mar != nil {
		value(mar, "top", &top)
		value(mar, "bottom", &bottom)
		value(mar, "left", &left)
		value(mar, "right", &right)
	}
	doc.PageWidth = reconcile.TwipsToMM(width)
	doc.PageHeight = reconcile.TwipsToMM(height)
	doc.MarginTop = reconcile.TwipsToMM(top)
	doc.MarginBottom = reconcile.TwipsToMM(bottom)
	doc.MarginLeft = reconcile.TwipsToMM(left)
	doc.MarginRight = reconcile.TwipsToMM(right)
}

// section reads the default header or footer referenced from sect.
func (r *reader) section(src source, sect *corexml.Node, ref string) ([]cdm.Element, error) {
	var chosen *corexml.Node
	for _, n := range sect.ChildrenNS(nsW, ref) {
		if chosen == nil || n.AttrValueNS(nsW, "type") == "default" {
			chosen = n
		}
	}
	if chosen == nil {
		return nil, nil
	}
	rel, ok := src.rels[chosen.AttrValueNS(nsR, "id")]
	if !ok || rel.External {
		return nil, nil
	}
	name := opc.ResolveTarget(src.name, rel.Target)
	if _, ok := r.pkg.Part(name); !ok {
		return nil, nil
	}
	part, err := r.source(name)
	if err != nil {
		return nil, err
	}
	tree, err := r.pkg.XML(name)
	if err != nil {
		return nil, err
	}
	return r.blocks(part, tree.Root()), nil
}

// blocks reads the block content of a body, header, footer or table cell.
func (r *reader) blocks(src source, container *corexml.Node) []cdm.Element {
	var out []cdm.Element
	var entries []reconcile.ListEntry
	flushList := func() {
		if len(entries) > 0 {
			out = append(out, reconcile.NestList(entries))
			entries = nil
		}
	}

	for _, n := range container.Children() {
		if n.Space() != nsW {
			continue
		}
		switch n.Name() {
		case "p":
			style := r.style(n.ChildNS(nsW, "pPr").ChildNS(nsW, "pStyle").AttrValueNS(nsW, "val"))
			if style.heading > 0 {
				flushList()
				out = append(out, cdm.Header{Level: style.heading, Text: textOf(n)})
				continue
			}
			if e, ok := r.listEntry(src, n, style); ok {
				if reconcile.StartsList(entries, e) {
					flushList()
				}
				entries = append(entries, e)
				continue
			}
			flushList()
			if elems := r.inline(src, n); len(elems) > 0 {
				out = append(out, reconcile.Single(elems))
			}
		case "tbl":
			flushList()
			out = append(out, r.table(src, n))
		case "sdt":
			flushList()
			if content := n.ChildNS(nsW, "sdtContent"); content != nil {
				out = append(out, r.blocks(src, content)...)
			}
		}
	}
	flushList()
	return out
}

func (r *reader) listEntry(src source, p *corexml.Node, style styleInfo) (reconcile.ListEntry, bool) {
	numID, level := style.numID, style.level
	numbered := style.numbered
	isList := style.list
	if numPr := p.ChildNS(nsW, "pPr").ChildNS(nsW, "numPr"); numPr != nil {
		if id, ok := numPr.ChildNS(nsW, "numId").AttrNS(nsW, "val"); ok {
			numID = id
			isList = true
		}
		if l, ok := numPr.ChildNS(nsW, "ilvl").AttrNS(nsW, "val"); ok {
			level = atoi(l)
		}
	}
	if !isList || numID == "0" {
		return reconcile.ListEntry{}, false
	}
	if levels, ok := r.numbering[numID]; ok {
		numbered = levels[level]
	}
	return reconcile.ListEntry{
		Depth:    level,
		Numbered: numbered,
		Key:      numID,
		Element:  reconcile.Single(r.inline(src, p)),
	}, true
}

// inline reads the runs, hyperlinks and drawings of a paragraph.
func (r *reader) inline(src source, p *corexml.Node) []cdm.Element {
	var out []cdm.Element
	for _, n := range p.Children() {
		if n.Space() != nsW {
			continue
		}
		switch n.Name() {
		case "r":
			out = append(out, r.run(src, n)...)
		case "hyperlink":
			out = append(out, r.hyperlink(src, n))
		case "ins", "smartTag", "customXml", "fldSimple":
			out = append(out, r.inline(src, n)...)
		case "sdt":
			if content := n.ChildNS(nsW, "sdtContent"); content != nil {
				out = append(out, r.inline(src, content)...)
			}
		}
	}
	return reconcile.MergeText(out)
}

// runSize maps the run properties to a relative size.
func runSize(rPr *corexml.Node) int {
	pt := 0.0
	if sz, ok := rPr.ChildNS(nsW, "sz").AttrNS(nsW, "val"); ok {
		pt = float64(atoi(sz)) / 2
	}
	return reconcile.SizeForRun(pt, toggle(rPr.ChildNS(nsW, "b")), toggle(rPr.ChildNS(nsW, "i")))
}

// toggle reads an on/off property such as w:b.
func toggle(n *corexml.Node) bool {
	if n == nil {
		return false
	}
	switch v, _ := n.AttrNS(nsW, "val"); v {
	case "0", "false", "off":
		return false
	}
	return true
}

func (r *reader) run(src source, n *corexml.Node) []cdm.Element {
	size := runSize(n.ChildNS(nsW, "rPr"))
	var out []cdm.Element
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			out = append(out, cdm.Text{Content: text.String(), Size: size})
			text.Reset()
		}
	}
	for _, c := range n.Children() {
		switch {
		case c.IsNS(nsW, "drawing"):
			if img, ok := r.image(src, c); ok {
				flush()
				out = append(out, img)
			}
		case c.Space() == nsW:
			text.WriteString(runText(c))
		}
	}
	flush()
	return out
}

// runText returns the text contributed by one run child.
func runText(c *corexml.Node) string {
	switch c.Name() {
	case "t":
		return c.Text()
	case "tab":
		return "\t"
	case "br", "cr":
		return "\n"
	case "noBreakHyphen":
		return "-"
	}
	return ""
}

// textOf concatenates the run text below n.
func textOf(n *corexml.Node) string {
	var b strings.Builder
	for _, c := range n.Children() {
		if c.Space() != nsW {
			continue
		}
		switch c.Name() {
		case "r":
			for _, rc := range c.Children() {
				if rc.Space() == nsW {
					b.WriteString(runText(rc))
				}
			}
		case "pPr", "rPr", "del":
		default:
			b.WriteString(textOf(c))
		}
	}
	return b.String()
}

func (r *reader) hyperlink(src source, n *corexml.Node) cdm.Hyperlink {
	h := cdm.Hyperlink{Title: textOf(n), Alt: n.AttrValueNS(nsW, "tooltip")}
	if rel, ok := src.rels[n.AttrValueNS(nsR, "id")]; ok {
		h.URL = rel.Target
	} else if anchor := n.AttrValueNS(nsW, "anchor"); anchor != "" {
		h.URL = "#" + anchor
	}
	if run := n.ChildNS(nsW, "r"); run != nil {
		h.Size = runSize(run.ChildNS(nsW, "rPr"))
	}
	return h
}

// image resolves the blip of a drawing to its media part.
func (r *reader) image(src source, drawing *corexml.Node) (cdm.Image, bool) {
	blip := drawing.DescendantNS(nsA, "blip")
	if blip == nil {
		return cdm.Image{}, false
	}
	rel, ok := src.rels[blip.AttrValueNS(nsR, "embed")]
	if !ok || rel.External {
		return cdm.Image{}, false
	}
	name := opc.ResolveTarget(src.name, rel.Target)
	data, ok := r.pkg.Part(name)
	if !ok {
		return cdm.Image{}, false
	}
	enc, ok := base.DetectEncoding(data, name)
	if !ok {
		return cdm.Image{}, false
	}
	img := cdm.Image{Bytes: data, Encoding: enc}
	if docPr := drawing.DescendantNS(nsWP, "docPr"); docPr != nil {
		img.Title = docPr.AttrValueNS("", "title")
		img.Alt = docPr.AttrValueNS("", "descr")
	}
	return img, true
}

// table takes the first row as headers and the column grid as widths.
func (r *reader) table(src source, tbl *corexml.Node) cdm.Table {
	var grid []int
	for _, col := range tbl.ChildNS(nsW, "tblGrid").ChildrenNS(nsW, "gridCol") {
		grid = append(grid, atoi(col.AttrValueNS(nsW, "w")))
	}

	var t cdm.Table
	for i, tr := range tbl.ChildrenNS(nsW, "tr") {
		var cells []cdm.Element
		for _, tc := range tr.ChildrenNS(nsW, "tc") {
			cells = append(cells, reconcile.Single(r.blocks(src, tc)))
		}
		if i == 0 {
			t.Headers = make([]cdm.TableHeader, len(cells))
			for j, c := range cells {
				t.Headers[j] = cdm.TableHeader{Element: c}
				if j < len(grid) && grid[j] > 0 {
					t.Headers[j].Width = reconcile.TwipsToMM(grid[j])
				}
			}
			continue
		}
		t.Rows = append(t.Rows, cdm.Row(cells...))
	}
	return reconcile.Reconciled(t, nil, "")
}
