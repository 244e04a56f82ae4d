package reconcile

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/docbridge/core/cdm"
)

// PlainText flattens any element to text. Inline children are concatenated,
// block children sit on their own lines.
func PlainText(e cdm.Element) string {
	var b strings.Builder
	writePlain(&b, e)
	return b.String()
}

// LinkText renders a hyperlink as "title (url)", or just the url when the
// title is empty or repeats it.
func LinkText(h cdm.Hyperlink) string {
	if h.Title == "" || h.Title == h.URL {
		return h.URL
	}
	if h.URL == "" {
		return h.Title
	}
	return h.Title + " (" + h.URL + ")"
}

// ImageText is the placeholder used where image bytes cannot be carried.
func ImageText(img cdm.Image) string {
	label := img.Alt
	if label == "" {
		label = img.Title
	}
	if label == "" {
		label = "untitled"
	}
	return "[Image: " + label + "]"
}

func writePlain(b *strings.Builder, e cdm.Element) {
	switch v := e.(type) {
	case cdm.Text:
		b.WriteString(v.Content)
	case cdm.Header:
		b.WriteString(v.Text)
	case cdm.Hyperlink:
		b.WriteString(LinkText(v))
	case cdm.Image:
		b.WriteString(ImageText(v))
	case cdm.Paragraph:
		block := false
		for _, c := range v.Children {
			isInline := cdm.IsInline(c)
			if b.Len() > 0 && (block || !isInline) && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
			writePlain(b, c)
			block = !isInline
		}
	case cdm.List:
		n := 0
		for i, it := range v.Items {
			if i > 0 {
				b.WriteByte('\n')
			}
			if nested, ok := it.Element.(cdm.List); ok {
				b.WriteString(PlainText(nested))
				continue
			}
			n++
			if v.Numbered {
				b.WriteString(strconv.Itoa(n) + ". ")
			} else {
				b.WriteString("- ")
			}
			writePlain(b, it.Element)
		}
	case cdm.Table:
		g := Rectangular(v, nil, "")
		writeCells(b, g.Headers)
		for _, r := range g.Rows {
			b.WriteByte('\n')
			writeCells(b, r)
		}
	}
}

func writeCells(b *strings.Builder, cells []cdm.Element) {
	for i, c := range cells {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(PlainText(c))
	}
}
