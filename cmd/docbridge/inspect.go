package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/detect"
)

// InspectCmd summarizes a document without converting it.
type InspectCmd struct {
	Input string `arg:"" help:"Input file, - for stdin"`
	From  string `help:"Source format (default: detected)"`
	JSON  bool   `name:"json" help:"Print the summary as JSON"`
}

// Inspection is the summary printed by inspect.
type Inspection struct {
	Format      string         `json:"format"`
	Size        int            `json:"size"`
	PageWidth   float64        `json:"page_width"`
	PageHeight  float64        `json:"page_height"`
	Margins     [4]float64     `json:"margins"` // top, bottom, left, right
	Elements    map[string]int `json:"elements"`
	PageHeader  int            `json:"page_header"`
	PageFooter  int            `json:"page_footer"`
	Fingerprint string         `json:"fingerprint"`
}

func (c *InspectCmd) Run(rt *runtime) error {
	input, err := readInput(c.Input, rt.stdin)
	if err != nil {
		return err
	}
	src, err := openSource(c.Input, input)
	if err != nil {
		return err
	}
	from, err := detect.Format(c.From, src.name, src.data)
	if err != nil {
		return err
	}
	var load docbridge.Loader
	if hasImages(from) {
		load = src.load
	}
	doc, err := docbridge.Default().Parse(from, src.data, load)
	if err != nil {
		return err
	}

	in := inspect(from, len(src.data), doc)
	if c.JSON {
		enc := json.NewEncoder(rt.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(in)
	}
	fmt.Fprintf(rt.stdout, "format:      %s\n", in.Format)
	fmt.Fprintf(rt.stdout, "size:        %s\n", humanize.Bytes(uint64(in.Size)))
	if doc.HasPageGeometry() {
		fmt.Fprintf(rt.stdout, "page:        %s x %s mm\n", humanize.Ftoa(in.PageWidth), humanize.Ftoa(in.PageHeight))
	} else {
		fmt.Fprintf(rt.stdout, "page:        none\n")
	}
	fmt.Fprintf(rt.stdout, "margins:     %s mm\n", joinFloats(in.Margins[:]))
	fmt.Fprintf(rt.stdout, "elements:    %s\n", formatCounts(in.Elements))
	fmt.Fprintf(rt.stdout, "page header: %d\n", in.PageHeader)
	fmt.Fprintf(rt.stdout, "page footer: %d\n", in.PageFooter)
	fmt.Fprintf(rt.stdout, "fingerprint: %s\n", in.Fingerprint)
	return nil
}

func inspect(format string, size int, doc *cdm.Document) Inspection {
	in := Inspection{
		Format:      format,
		Size:        size,
		PageWidth:   doc.PageWidth,
		PageHeight:  doc.PageHeight,
		Margins:     [4]float64{doc.MarginTop, doc.MarginBottom, doc.MarginLeft, doc.MarginRight},
		Elements:    make(map[string]int),
		PageHeader:  len(doc.PageHeader),
		PageFooter:  len(doc.PageFooter),
		Fingerprint: cdm.Fingerprint(doc),
	}
	for kind, n := range cdm.Stats(doc) {
		in.Elements[strings.ToLower(kind.String())] = n
	}
	return in
}

func joinFloats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = humanize.Ftoa(f)
	}
	return strings.Join(parts, " / ")
}

// formatCounts lists counts in cdm.Kinds order, skipping zeros.
func formatCounts(counts map[string]int) string {
	var parts []string
	for _, k := range cdm.Kinds() {
		name := strings.ToLower(k.String())
		if n := counts[name]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", name, n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
