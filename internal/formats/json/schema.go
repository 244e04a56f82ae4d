package json

import "encoding/json"

// JSONDocument is the serialized Document. Every field is always written.
type JSONDocument struct {
	Body         []json.RawMessage `json:"body"`
	PageWidth    float64           `json:"page_width"`
	PageHeight   float64           `json:"page_height"`
	MarginTop    float64           `json:"margin_top"`
	MarginBottom float64           `json:"margin_bottom"`
	MarginLeft   float64           `json:"margin_left"`
	MarginRight  float64           `json:"margin_right"`
	PageHeader   []json.RawMessage `json:"page_header"`
	PageFooter   []json.RawMessage `json:"page_footer"`
}

// JSONTag carries the variant name of an element.
type JSONTag struct {
	Type string `json:"type"`
}

type JSONText struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Size    int    `json:"size"`
}

type JSONHeader struct {
	Type  string `json:"type"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type JSONParagraph struct {
	Type     string            `json:"type"`
	Children []json.RawMessage `json:"children"`
}

type JSONTable struct {
	Type    string            `json:"type"`
	Headers []JSONTableHeader `json:"headers"`
	Rows    []JSONTableRow    `json:"rows"`
}

type JSONTableHeader struct {
	Element json.RawMessage `json:"element"`
	Width   float64         `json:"width"`
}

type JSONTableRow struct {
	Cells []JSONTableCell `json:"cells"`
}

type JSONTableCell struct {
	Element json.RawMessage `json:"element"`
}

type JSONList struct {
	Type     string         `json:"type"`
	Items    []JSONListItem `json:"items"`
	Numbered bool           `json:"numbered"`
}

type JSONListItem struct {
	Element json.RawMessage `json:"element"`
}

// JSONImage stores the payload as base64.
type JSONImage struct {
	Type     string `json:"type"`
	Bytes    []byte `json:"bytes"`
	Title    string `json:"title"`
	Alt      string `json:"alt"`
	Encoding string `json:"encoding"`
}

type JSONHyperlink struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Alt   string `json:"alt"`
	Size  int    `json:"size"`
}
