package ods

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/docbridge/core/opc"
	corexml "github.com/FocuswithJustin/docbridge/core/xml"
	"github.com/FocuswithJustin/docbridge/internal/formats/sheet"
)

const odfVersion = "1.2"

// Encode writes a package with one table per sheet. Column widths become
// automatic table-column styles shared by equal widths.
func (Codec) Encode(sheets []sheet.Sheet) ([]byte, error) {
	content, err := contentPart(sheets)
	if err != nil {
		return nil, err
	}
	styles, err := stylesPart()
	if err != nil {
		return nil, err
	}
	manifest, err := manifestPart()
	if err != nil {
		return nil, err
	}

	w := opc.NewWriter()
	if err := w.Store("mimetype", []byte(MIMEType)); err != nil {
		return nil, err
	}
	for _, p := range []struct {
		name string
		data []byte
	}{
		{"content.xml", content},
		{"styles.xml", styles},
		{"META-INF/manifest.xml", manifest},
	} {
		if err := w.Add(p.name, p.data); err != nil {
			return nil, err
		}
	}
	return w.Bytes()
}

func width(mm float64) string {
	return strconv.FormatFloat(mm, 'f', -1, 64) + "mm"
}

func contentPart(sheets []sheet.Sheet) ([]byte, error) {
	styleOf := make(map[string]string)
	var order []string
	for _, s := range sheets {
		for _, mm := range s.Widths {
			if mm <= 0 {
				continue
			}
			if v := width(mm); styleOf[v] == "" {
				styleOf[v] = "co" + strconv.Itoa(len(order)+1)
				order = append(order, v)
			}
		}
	}

	x := corexml.NewWriter("")
	x.Start("office:document-content",
		"xmlns:office", nsOffice,
		"xmlns:style", nsStyle,
		"xmlns:table", nsTable,
		"xmlns:text", nsText,
		"xmlns:fo", nsFO,
		"office:version", odfVersion)
	x.Start("office:automatic-styles")
	for _, v := range order {
		x.Start("style:style", "style:name", styleOf[v], "style:family", "table-column")
		x.Empty("style:table-column-properties", "style:column-width", v)
		x.End("style:style")
	}
	x.End("office:automatic-styles")

	x.Start("office:body")
	x.Start("office:spreadsheet")
	for _, s := range sheets {
		x.Start("table:table", "table:name", s.Name)
		columns := 0
		for _, r := range s.Rows {
			if len(r) > columns {
				columns = len(r)
			}
		}
		for c := 0; c < columns; c++ {
			if c < len(s.Widths) && s.Widths[c] > 0 {
				x.Empty("table:table-column", "table:style-name", styleOf[width(s.Widths[c])])
			} else {
				x.Empty("table:table-column")
			}
		}
		if columns == 0 {
			x.Empty("table:table-column")
		}
		for _, r := range s.Rows {
			x.Start("table:table-row")
			for _, v := range r {
				if v == "" {
					x.Empty("table:table-cell")
					continue
				}
				x.Start("table:table-cell", "office:value-type", "string")
				for _, line := range strings.Split(v, "\n") {
					x.Start("text:p")
					writeText(x, line)
					x.End("text:p")
				}
				x.End("table:table-cell")
			}
			x.End("table:table-row")
		}
		if len(s.Rows) == 0 {
			x.Start("table:table-row")
			x.Empty("table:table-cell")
			x.End("table:table-row")
		}
		x.End("table:table")
	}
	x.End("office:spreadsheet")
	x.End("office:body")
	x.End("office:document-content")
	return x.Bytes()
}

// writeText writes one paragraph line. Spaces that ODF would collapse,
// leading ones and runs after the first, become text:s; tabs become text:tab.
func writeText(x *corexml.Writer, line string) {
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			x.Text(b.String())
			b.Reset()
		}
	}
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '\t':
			flush()
			x.Empty("text:tab")
		case ' ':
			j := i
			for j < len(runes) && runes[j] == ' ' {
				j++
			}
			n := j - i
			if i > 0 && runes[i-1] != '\t' {
				b.WriteByte(' ')
				n--
			}
			if n > 0 {
				flush()
				if n == 1 {
					x.Empty("text:s")
				} else {
					x.Empty("text:s", "text:c", strconv.Itoa(n))
				}
			}
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}
	flush()
}

func stylesPart() ([]byte, error) {
	x := corexml.NewWriter("")
	x.Start("office:document-styles",
		"xmlns:office", nsOffice,
		"xmlns:style", nsStyle,
		"xmlns:fo", nsFO,
		"office:version", odfVersion)
	x.Start("office:styles")
	x.Start("style:default-style", "style:family", "table-cell")
	x.Empty("style:text-properties", "fo:font-size", "10pt")
	x.End("style:default-style")
	x.End("office:styles")
	x.End("office:document-styles")
	return x.Bytes()
}

func manifestPart() ([]byte, error) {
	x := corexml.NewWriter("")
	x.Start("manifest:manifest", "xmlns:manifest", nsManifest, "manifest:version", odfVersion)
	x.Empty("manifest:file-entry", "manifest:full-path", "/", "manifest:version", odfVersion, "manifest:media-type", MIMEType)
	for _, name := range []string{"content.xml", "styles.xml"} {
		x.Empty("manifest:file-entry", "manifest:full-path", name, "manifest:media-type", "text/xml")
	}
	x.End("manifest:manifest")
	return x.Bytes()
}
