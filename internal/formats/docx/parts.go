package docx

import (
	"strconv"

	"github.com/FocuswithJustin/docbridge/core/reconcile"
	corexml "github.com/FocuswithJustin/docbridge/core/xml"
)

// Abstract numbering definitions written to numbering.xml.
const (
	abstractBullet  = "0"
	abstractDecimal = "1"
)

func stylesPart() ([]byte, error) {
	x := corexml.NewWriter("")
	x.Start("w:styles", "xmlns:w", nsW)

	body := strconv.Itoa(int(reconcile.BodyPoints * 2))
	x.Start("w:docDefaults")
	x.Start("w:rPrDefault")
	x.Start("w:rPr")
	x.Empty("w:rFonts", "w:ascii", "Calibri", "w:hAnsi", "Calibri", "w:cs", "Calibri")
	x.Empty("w:sz", "w:val", body)
	x.Empty("w:szCs", "w:val", body)
	x.End("w:rPr")
	x.End("w:rPrDefault")
	x.Start("w:pPrDefault")
	x.Start("w:pPr")
	x.Empty("w:spacing", "w:after", "120")
	x.End("w:pPr")
	x.End("w:pPrDefault")
	x.End("w:docDefaults")

	x.Start("w:style", "w:type", "paragraph", "w:default", "1", "w:styleId", "Normal")
	x.Empty("w:name", "w:val", "Normal")
	x.Empty("w:qFormat")
	x.End("w:style")

	for level := reconcile.MinHeading; level <= reconcile.MaxHeading; level++ {
		n := strconv.Itoa(level)
		sz := strconv.Itoa(int(reconcile.PointsForHeading(level) * 2))
		x.Start("w:style", "w:type", "paragraph", "w:styleId", "Heading"+n)
		x.Empty("w:name", "w:val", "heading "+n)
		x.Empty("w:basedOn", "w:val", "Normal")
		x.Empty("w:next", "w:val", "Normal")
		x.Empty("w:qFormat")
		x.Start("w:pPr")
		x.Empty("w:keepNext")
		x.Empty("w:spacing", "w:before", "240")
		x.Empty("w:outlineLvl", "w:val", strconv.Itoa(level-1))
		x.End("w:pPr")
		x.Start("w:rPr")
		x.Empty("w:b")
		x.Empty("w:sz", "w:val", sz)
		x.Empty("w:szCs", "w:val", sz)
		x.End("w:rPr")
		x.End("w:style")
	}

	x.Start("w:style", "w:type", "paragraph", "w:styleId", "ListParagraph")
	x.Empty("w:name", "w:val", "List Paragraph")
	x.Empty("w:basedOn", "w:val", "Normal")
	x.Empty("w:qFormat")
	x.Start("w:pPr")
	x.Empty("w:contextualSpacing")
	x.End("w:pPr")
	x.End("w:style")

	x.Start("w:style", "w:type", "character", "w:styleId", "Hyperlink")
	x.Empty("w:name", "w:val", "Hyperlink")
	x.Start("w:rPr")
	x.Empty("w:color", "w:val", "0563C1")
	x.Empty("w:u", "w:val", "single")
	x.End("w:rPr")
	x.End("w:style")

	x.Start("w:style", "w:type", "table", "w:styleId", "TableGrid")
	x.Empty("w:name", "w:val", "Table Grid")
	x.Start("w:tblPr")
	x.Start("w:tblBorders")
	for _, side := range []string{"w:top", "w:left", "w:bottom", "w:right", "w:insideH", "w:insideV"} {
		x.Empty(side, "w:val", "single", "w:sz", "4", "w:space", "0", "w:color", "auto")
	}
	x.End("w:tblBorders")
	x.Start("w:tblCellMar")
	x.Empty("w:left", "w:w", "108", "w:type", "dxa")
	x.Empty("w:right", "w:w", "108", "w:type", "dxa")
	x.End("w:tblCellMar")
	x.End("w:tblPr")
	x.End("w:style")

	x.End("w:styles")
	return x.Bytes()
}

// numberingPart writes a bullet and a decimal definition and one instance
// per list. Numbered instances restart at 1.
func numberingPart(lists []bool) ([]byte, error) {
	x := corexml.NewWriter("")
	x.Start("w:numbering", "xmlns:w", nsW)
	for _, def := range []struct {
		id, format string
		text       func(level int) string
	}{
		{abstractBullet, "bullet", func(int) string { return "•" }},
		{abstractDecimal, "decimal", func(level int) string { return "%" + strconv.Itoa(level+1) + "." }},
	} {
		x.Start("w:abstractNum", "w:abstractNumId", def.id)
		x.Empty("w:multiLevelType", "w:val", "hybridMultilevel")
		for level := 0; level <= maxListLevel; level++ {
			x.Start("w:lvl", "w:ilvl", strconv.Itoa(level))
			x.Empty("w:start", "w:val", "1")
			x.Empty("w:numFmt", "w:val", def.format)
			x.Empty("w:lvlText", "w:val", def.text(level))
			x.Empty("w:lvlJc", "w:val", "left")
			x.Start("w:pPr")
			x.Empty("w:ind", "w:left", strconv.Itoa(720*(level+1)), "w:hanging", "360")
			x.End("w:pPr")
			x.End("w:lvl")
		}
		x.End("w:abstractNum")
	}
	for i, numbered := range lists {
		x.Start("w:num", "w:numId", strconv.Itoa(i+1))
		if numbered {
			x.Empty("w:abstractNumId", "w:val", abstractDecimal)
			x.Start("w:lvlOverride", "w:ilvl", "0")
			x.Empty("w:startOverride", "w:val", "1")
			x.End("w:lvlOverride")
		} else {
			x.Empty("w:abstractNumId", "w:val", abstractBullet)
		}
		x.End("w:num")
	}
	x.End("w:numbering")
	return x.Bytes()
}
