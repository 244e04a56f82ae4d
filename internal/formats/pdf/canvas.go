package pdf

import (
	"bytes"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/FocuswithJustin/docbridge/core/cdm"
)

// Page is the page geometry in millimetres.
type Page struct {
	Width, Height            float64
	Top, Bottom, Left, Right float64
}

// Canvas is the drawing surface the generator writes to. Coordinates are
// millimetres from the top-left corner of the page.
type Canvas interface {
	Setup(p Page)
	SetHeaderFunc(fn func())
	SetFooterFunc(fn func())
	AddPage()

	SetFont(bold, italic bool, points float64)
	// SetIndent moves the left edge of flowing text to the margin plus mm.
	SetIndent(mm float64)
	Write(h float64, text string)
	WriteLink(h float64, text, url string)
	Ln(h float64)

	Position() (x, y float64)
	MoveTo(x, y float64)
	// TextBox draws wrapped text inside a box of width w with line height h.
	TextBox(x, y, w, h float64, text string)
	// LineCount returns the number of lines text wraps to in width w.
	LineCount(text string, w float64) int
	Rect(x, y, w, h float64)
	Image(name string, img cdm.Image, x, y, w, h float64) error

	Output(w io.Writer) error
}

// epoch is the fixed creation date written into every file.
var epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// fontFamily is a core font, so no font files are embedded.
const fontFamily = "Helvetica"

// fpdfCanvas draws with gofpdf using the core fonts and the cp1252 code page.
type fpdfCanvas struct {
	f    *gofpdf.Fpdf
	tr   func(string) string
	page Page
}

// NewCanvas returns the default gofpdf canvas.
func NewCanvas() Canvas {
	return &fpdfCanvas{}
}

func (c *fpdfCanvas) Setup(p Page) {
	c.page = p
	c.f = gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: p.Width, Ht: p.Height},
	})
	c.f.SetMargins(p.Left, p.Top, p.Right)
	c.f.SetAutoPageBreak(true, p.Bottom)
	c.f.SetCreationDate(epoch)
	c.f.SetCatalogSort(true)
	c.f.SetFont(fontFamily, "", 11)
	c.tr = c.f.UnicodeTranslatorFromDescriptor("")
}

func (c *fpdfCanvas) SetHeaderFunc(fn func()) {
	c.f.SetHeaderFunc(fn)
}

func (c *fpdfCanvas) SetFooterFunc(fn func()) {
	c.f.SetFooterFunc(fn)
}

func (c *fpdfCanvas) AddPage() {
	c.f.AddPage()
}

func (c *fpdfCanvas) SetFont(bold, italic bool, points float64) {
	style := ""
	if bold {
		style += "B"
	}
	if italic {
		style += "I"
	}
	c.f.SetFont(fontFamily, style, points)
}

func (c *fpdfCanvas) SetIndent(mm float64) {
	c.f.SetLeftMargin(c.page.Left + mm)
	c.f.SetX(c.page.Left + mm)
}

func (c *fpdfCanvas) Write(h float64, text string) {
	c.f.Write(h, c.tr(text))
}

func (c *fpdfCanvas) WriteLink(h float64, text, url string) {
	c.f.WriteLinkString(h, c.tr(text), url)
}

func (c *fpdfCanvas) Ln(h float64) {
	c.f.Ln(h)
}

func (c *fpdfCanvas) Position() (float64, float64) {
	return c.f.GetXY()
}

func (c *fpdfCanvas) MoveTo(x, y float64) {
	c.f.SetXY(x, y)
}

func (c *fpdfCanvas) TextBox(x, y, w, h float64, text string) {
	c.f.SetXY(x, y)
	c.f.MultiCell(w, h, c.tr(text), "", "L", false)
}

func (c *fpdfCanvas) LineCount(text string, w float64) int {
	n := 0
	for _, line := range bytes.Split([]byte(c.tr(text)), []byte{'\n'}) {
		if len(line) == 0 {
			n++
			continue
		}
		n += len(c.f.SplitLines(line, w))
	}
	return n
}

func (c *fpdfCanvas) Rect(x, y, w, h float64) {
	c.f.Rect(x, y, w, h, "D")
}

// Image registers and draws an image. A decoding failure is returned and
// cleared so the rest of the document still renders.
func (c *fpdfCanvas) Image(name string, img cdm.Image, x, y, w, h float64) error {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	if img.Encoding == cdm.JPEG {
		opts.ImageType = "JPG"
	}
	c.f.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Bytes))
	if c.f.Err() {
		err := c.f.Error()
		c.f.ClearError()
		return err
	}
	c.f.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return nil
}

func (c *fpdfCanvas) Output(w io.Writer) error {
	return c.f.Output(w)
}
