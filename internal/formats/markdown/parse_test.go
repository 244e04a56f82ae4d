package markdown

import (
	"errors"
	"testing"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	docerrors "github.com/FocuswithJustin/docbridge/core/errors"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func parse(t *testing.T, input string) []cdm.Element {
	t.Helper()
	doc, err := (&Handler{}).Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", input, err)
	}
	return doc.Body
}

func TestParseScenario(t *testing.T) {
	got := parse(t, "# Title\n\nHello **world**\n\n- one\n- two\n")
	want := []cdm.Element{
		cdm.Header{Level: 1, Text: "Title"},
		cdm.Paragraph{Children: []cdm.Element{cdm.T("Hello "), cdm.Text{Content: "world", Size: 2}}},
		cdm.List{Items: cdm.Items(cdm.T("one"), cdm.T("two"))},
	}
	if !cdm.ElementsEqual(got, want) {
		t.Errorf("Parse() = %#v\nwant %#v", got, want)
	}
}

func TestParseBlocks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []cdm.Element
	}{
		{"atx levels", "### Three\n###### Six", []cdm.Element{
			cdm.Header{Level: 3, Text: "Three"},
			cdm.Header{Level: 6, Text: "Six"},
		}},
		{"seven hashes is text", "####### x", []cdm.Element{cdm.T("####### x")}},
		{"closing hashes", "## Title ##", []cdm.Element{cdm.Header{Level: 2, Text: "Title"}}},
		{"setext", "Big\n===\n\nSmall\n---", []cdm.Element{
			cdm.Header{Level: 1, Text: "Big"},
			cdm.Header{Level: 2, Text: "Small"},
		}},
		{"paragraph lines join", "a\nb", []cdm.Element{cdm.T("a\nb")}},
		{"blank line splits", "a\n\nb", []cdm.Element{cdm.T("a"), cdm.T("b")}},
		{"heading interrupts paragraph", "a\n# H", []cdm.Element{cdm.T("a"), cdm.Header{Level: 1, Text: "H"}}},
		{"fence", "```go\nx := 1\n\ny\n```", []cdm.Element{
			cdm.Paragraph{Children: []cdm.Element{cdm.T("x := 1\n\ny")}},
		}},
		{"tilde fence keeps escapes", "~~~\n\\d\n~~~", []cdm.Element{
			cdm.Paragraph{Children: []cdm.Element{cdm.T(`\d`)}},
		}},
		{"blockquote verbatim", "> quoted *text*\n> more", []cdm.Element{
			cdm.Paragraph{Children: []cdm.Element{cdm.T("> quoted *text*\n> more")}},
		}},
		{"thematic break verbatim", "a\n\n***\n\nb", []cdm.Element{
			cdm.T("a"),
			cdm.Paragraph{Children: []cdm.Element{cdm.T("***")}},
			cdm.T("b"),
		}},
		{"html block verbatim", "<div>\n*x*\n</div>", []cdm.Element{
			cdm.Paragraph{Children: []cdm.Element{cdm.T("<div>\n*x*\n</div>")}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parse(t, tt.input); !cdm.ElementsEqual(got, tt.want) {
				t.Errorf("Parse() = %#v\nwant %#v", got, tt.want)
			}
		})
	}
}

func TestParseLists(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []cdm.Element
	}{
		{"nested", "- a\n  - b\n  - c\n- d", []cdm.Element{
			cdm.List{Items: cdm.Items(
				cdm.T("a"),
				cdm.List{Items: cdm.Items(cdm.T("b"), cdm.T("c"))},
				cdm.T("d"),
			)},
		}},
		{"numbered", "1. a\n2) b", []cdm.Element{
			cdm.List{Numbered: true, Items: cdm.Items(cdm.T("a"), cdm.T("b"))},
		}},
		{"type change starts new list", "- a\n1. b", []cdm.Element{
			cdm.List{Items: cdm.Items(cdm.T("a"))},
			cdm.List{Numbered: true, Items: cdm.Items(cdm.T("b"))},
		}},
		{"continuation line", "- a\n  still a\n- b", []cdm.Element{
			cdm.List{Items: cdm.Items(cdm.T("a\nstill a"), cdm.T("b"))},
		}},
		{"styled item", "* *x* y", []cdm.Element{
			cdm.List{Items: cdm.Items(cdm.Paragraph{Children: []cdm.Element{
				cdm.Text{Content: "x", Size: 1}, cdm.T(" y"),
			}})},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parse(t, tt.input); !cdm.ElementsEqual(got, tt.want) {
				t.Errorf("Parse() = %#v\nwant %#v", got, tt.want)
			}
		})
	}
}

func TestParseTable(t *testing.T) {
	got := parse(t, "| a \\| b | c |\n|---|:--:|\n| 1 | **2** |\n\nafter")
	want := []cdm.Element{
		cdm.Table{
			Headers: cdm.Headers(cdm.T("a | b"), cdm.T("c")),
			Rows:    []cdm.TableRow{cdm.Row(cdm.T("1"), cdm.Text{Content: "2", Size: 2})},
		},
		cdm.T("after"),
	}
	if !cdm.ElementsEqual(got, want) {
		t.Errorf("Parse() = %#v\nwant %#v", got, want)
	}
}

func TestParseInline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  cdm.Element
	}{
		{"strong emphasis", "***x***", cdm.Text{Content: "x", Size: 3}},
		{"code span", "`a *b*`", cdm.T("a *b*")},
		{"escapes", `\*not\* \[x\]`, cdm.T("*not* [x]")},
		{"link", `[docs](https://x.test "Docs")`, cdm.Hyperlink{Title: "docs", URL: "https://x.test", Alt: "Docs"}},
		{"autolink", "<https://x.test>", cdm.Hyperlink{Title: "https://x.test", URL: "https://x.test", Alt: "https://x.test"}},
		{"bold link", "**[a](u)**", cdm.Hyperlink{Title: "a", URL: "u", Size: 2}},
		{"raw html", "a <span>b</span>", cdm.T("a <span>b</span>")},
		{"image without loader", `![alt](pic.png "T")`, cdm.Hyperlink{Title: "alt", URL: "pic.png", Alt: "T"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse(t, tt.input)
			if len(got) != 1 || !cdm.ElementEqual(got[0], tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseWithLoader(t *testing.T) {
	var requested []string
	load := func(url string) ([]byte, error) {
		requested = append(requested, url)
		return pngBytes, nil
	}
	doc, err := (&Handler{}).ParseWithLoader([]byte(`![logo](img/logo.png "Logo")`), load)
	if err != nil {
		t.Fatal(err)
	}
	img, ok := doc.Body[0].(cdm.Image)
	if !ok {
		t.Fatalf("body[0] = %#v, want Image", doc.Body[0])
	}
	if img.Alt != "logo" || img.Title != "Logo" || img.Encoding != cdm.PNG || len(requested) != 1 {
		t.Errorf("image = %#v, requested %v", img, requested)
	}

	cause := errors.New("offline")
	_, err = (&Handler{}).ParseWithLoader([]byte("![x](y.png)"), func(string) ([]byte, error) { return nil, cause })
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want loader error", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"delimiter mismatch", "| a | b |\n| --- |\n| 1 | 2 |", 2},
		{"row mismatch", "intro\n\n| a | b |\n|---|---|\n| 1 | 2 |\n| 3 |", 6},
		{"unterminated fence", "text\n\n```\ncode", 3},
		{"invalid escape", "fine\n\nbad \\q here", 3},
		{"dangling backslash", "a\nb\\", 2},
		{"invalid utf8", "ok\n\xff", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := (&Handler{}).Parse([]byte(tt.input))
			if doc != nil {
				t.Error("Parse() returned a partial document")
			}
			var pe *docerrors.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want ParseError", err)
			}
			if pe.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d (%v)", pe.Line, tt.wantLine, err)
			}
		})
	}
}

func TestParseEscapesInCodeSpan(t *testing.T) {
	got := parse(t, "use `C:\\dir` or ``a\\b``")
	want := cdm.T(`use C:\dir or a\b`)
	if len(got) != 1 || !cdm.ElementEqual(got[0], want) {
		t.Errorf("Parse() = %#v", got)
	}
}
