package cdm

// Kind identifies an Element variant.
type Kind int

// Element variants.
const (
	KindText Kind = iota
	KindHeader
	KindParagraph
	KindTable
	KindList
	KindImage
	KindHyperlink
)

var kindNames = [...]string{
	KindText:      "Text",
	KindHeader:    "Header",
	KindParagraph: "Paragraph",
	KindTable:     "Table",
	KindList:      "List",
	KindImage:     "Image",
	KindHyperlink: "Hyperlink",
}

// String returns the canonical variant name used by the JSON and XML schemas.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Kinds lists every variant in declaration order.
func Kinds() []Kind {
	return []Kind{KindText, KindHeader, KindParagraph, KindTable, KindList, KindImage, KindHyperlink}
}

// KindFromString resolves a canonical variant name.
func KindFromString(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Element is one node of the document tree.
type Element interface {
	Kind() Kind
	element()
}

// Text is a run of characters at a relative size.
type Text struct {
	Content string
	Size    int
}

// Header is a section heading. Valid levels are 1 through 6.
type Header struct {
	Level int
	Text  string
}

// Paragraph groups inline or block children.
type Paragraph struct {
	Children []Element
}

// Table is a header row plus body rows.
type Table struct {
	Headers []TableHeader
	Rows    []TableRow
}

// List is an ordered sequence of items. Numbered selects rendering only.
type List struct {
	Items    []ListItem
	Numbered bool
}

// ImageEncoding is the payload encoding of an Image.
type ImageEncoding string

// Supported image encodings.
const (
	PNG  ImageEncoding = "PNG"
	JPEG ImageEncoding = "JPEG"
)

// IsValid reports whether e is a supported encoding.
func (e ImageEncoding) IsValid() bool {
	return e == PNG || e == JPEG
}

// Extension returns the file extension used when an image is saved.
func (e ImageEncoding) Extension() string {
	if e == JPEG {
		return ".jpg"
	}
	return ".png"
}

// MIMEType returns the media type of the encoding.
func (e ImageEncoding) MIMEType() string {
	if e == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Image holds inline image bytes.
type Image struct {
	Bytes    []byte
	Title    string
	Alt      string
	Encoding ImageEncoding
}

// Hyperlink is a link with display title, target and alternate text.
type Hyperlink struct {
	Title string
	URL   string
	Alt   string
	Size  int
}

// ListItem wraps one element of a List.
type ListItem struct {
	Element Element
}

// TableHeader is a header cell with an advisory column width in millimetres.
// A zero width means no hint.
type TableHeader struct {
	Element Element
	Width   float64
}

// TableRow is one body row.
type TableRow struct {
	Cells []TableCell
}

// TableCell wraps one element of a row.
type TableCell struct {
	Element Element
}

func (Text) Kind() Kind      { return KindText }
func (Header) Kind() Kind    { return KindHeader }
func (Paragraph) Kind() Kind { return KindParagraph }
func (Table) Kind() Kind     { return KindTable }
func (List) Kind() Kind      { return KindList }
func (Image) Kind() Kind     { return KindImage }
func (Hyperlink) Kind() Kind { return KindHyperlink }

func (Text) element()      {}
func (Header) element()    {}
func (Paragraph) element() {}
func (Table) element()     {}
func (List) element()      {}
func (Image) element()     {}
func (Hyperlink) element() {}

// IsInline reports whether e flows within a line (Text, Hyperlink, Image).
func IsInline(e Element) bool {
	switch e.(type) {
	case Text, Hyperlink, Image:
		return true
	}
	return false
}

// Document is the root of the tree.
type Document struct {
	Body []Element

	// Page geometry in millimetres.
	PageWidth    float64
	PageHeight   float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64

	// PageHeader and PageFooter repeat on every page of paginated formats.
	PageHeader []Element
	PageFooter []Element
}

// PageFormat is a named paper size.
type PageFormat struct {
	Name   string
	Width  float64
	Height float64
}

// Common paper sizes in millimetres.
var (
	A4     = PageFormat{Name: "A4", Width: 210, Height: 297}
	Letter = PageFormat{Name: "Letter", Width: 215.9, Height: 279.4}
	Legal  = PageFormat{Name: "Legal", Width: 215.9, Height: 355.6}
)

// DefaultMargin is the margin applied by NewDocument on every side.
const DefaultMargin = 10.0

// NewDocument returns an A4 document with default margins.
func NewDocument(body ...Element) *Document {
	d := &Document{Body: body}
	d.SetPageFormat(A4)
	d.MarginTop = DefaultMargin
	d.MarginBottom = DefaultMargin
	d.MarginLeft = DefaultMargin
	d.MarginRight = DefaultMargin
	return d
}

// SetPageFormat sets the page width and height.
func (d *Document) SetPageFormat(f PageFormat) {
	d.PageWidth = f.Width
	d.PageHeight = f.Height
}

// ContentWidth is the page width between the left and right margins.
func (d *Document) ContentWidth() float64 {
	w := d.PageWidth - d.MarginLeft - d.MarginRight
	if w < 0 {
		return 0
	}
	return w
}

// HasPageGeometry reports whether width and height are set.
func (d *Document) HasPageGeometry() bool {
	return d.PageWidth > 0 && d.PageHeight > 0
}

// T is shorthand for a body-size Text.
func T(content string) Text {
	return Text{Content: content}
}

// Row builds a TableRow from elements.
func Row(cells ...Element) TableRow {
	r := TableRow{Cells: make([]TableCell, len(cells))}
	for i, c := range cells {
		r.Cells[i] = TableCell{Element: c}
	}
	return r
}

// Headers builds TableHeaders without width hints from elements.
func Headers(cells ...Element) []TableHeader {
	hs := make([]TableHeader, len(cells))
	for i, c := range cells {
		hs[i] = TableHeader{Element: c}
	}
	return hs
}

// Items builds ListItems from elements.
func Items(elems ...Element) []ListItem {
	items := make([]ListItem, len(elems))
	for i, e := range elems {
		items[i] = ListItem{Element: e}
	}
	return items
}
