package docx

// XML namespaces of WordprocessingML and DrawingML.
const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
)

// Relationship types.
const (
	relBase      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	relStyles    = relBase + "styles"
	relNumbering = relBase + "numbering"
	relHeader    = relBase + "header"
	relFooter    = relBase + "footer"
	relImage     = relBase + "image"
	relHyperlink = relBase + "hyperlink"
)

// Content types.
const (
	ctBase      = "application/vnd.openxmlformats-officedocument.wordprocessingml."
	ctMain      = ctBase + "document.main+xml"
	ctStyles    = ctBase + "styles+xml"
	ctNumbering = ctBase + "numbering+xml"
	ctHeader    = ctBase + "header+xml"
	ctFooter    = ctBase + "footer+xml"
)

// Part names written by Generate.
const (
	partDocument  = "word/document.xml"
	partStyles    = "word/styles.xml"
	partNumbering = "word/numbering.xml"
	partHeader    = "word/header1.xml"
	partFooter    = "word/footer1.xml"
)

// emuPerMM converts millimetres to DrawingML English Metric Units.
const emuPerMM = 36000

// rootNamespaces declares every prefix the writer uses.
var rootNamespaces = []string{
	"xmlns:w", nsW,
	"xmlns:r", nsR,
	"xmlns:wp", nsWP,
	"xmlns:a", nsA,
	"xmlns:pic", nsPic,
}
