package typst

import (
	"errors"
	"slices"
	"testing"
)

func TestScanCall(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		src    string
		blocks []string
		end    int
	}{
		{"bare", "#foo bar", "foo", nil, 4},
		{"dotted", "#table.header([a])", "table.header($0)", []string{"a"}, 18},
		{"set rule", "#set page(width: 1in)", "set page(width: 1in)", nil, 21},
		{"brackets in strings and escapes", `#link("a]b")[t [x] \] y] tail`, `link("a]b")$0`, []string{`t [x] \] y`}, 24},
		{"nested call in content", `#strong[#emph[x]]`, "strong$0", []string{"#emph[x]"}, 17},
		{"content in arguments", "#f(a: [x], [y])[z]", "f(a: $0, $1)$2", []string{"x", "y", "z"}, 18},
		{"raw text hides brackets", "#f[`]`]", "f$0", []string{"`]`"}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := scanCall(tt.input, 0)
			if err != nil {
				t.Fatal(err)
			}
			if sc.src != tt.src || !slices.Equal(sc.blocks, tt.blocks) || sc.end != tt.end {
				t.Errorf("scanCall() = %q %q end %d, want %q %q end %d", sc.src, sc.blocks, sc.end, tt.src, tt.blocks, tt.end)
			}
		})
	}
}

func TestScanCallErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
		off   int
	}{
		{`#f("abc`, "unterminated string", 3},
		{"#f(\"a\nb\")", "unterminated string", 3},
		{"#f(a, (b)", "unclosed parenthesis", 2},
		{"#f[a [b]", "unclosed bracket", 2},
		{"#f[a \\]", "unclosed bracket", 2},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := scanCall(tt.input, 0)
			var se *scanError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want scanError", err)
			}
			if se.msg != tt.msg || se.off != tt.off {
				t.Errorf("scanError = %q at %d, want %q at %d", se.msg, se.off, tt.msg, tt.off)
			}
		})
	}
}

func TestParseCallArguments(t *testing.T) {
	c, sc, err := parseCall(`#set page(width: 8.5in, height: 11in, margin: (x: 1cm, y: 20pt), columns: auto, header: [h])`, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Set || c.Name != "page" || len(sc.blocks) != 1 {
		t.Fatalf("call = %+v", c)
	}
	if w, ok := c.named("width").millimetres(); !ok || w != 215.9 {
		t.Errorf("width = %v %v", w, ok)
	}
	margin := c.named("margin")
	if len(margin.Group) != 2 || margin.Group[0].Name != "x" {
		t.Fatalf("margin = %+v", margin)
	}
	if y, ok := margin.Group[1].Value.millimetres(); !ok || y != 7.06 {
		t.Errorf("y = %v %v", y, ok)
	}
	if got := c.named("columns").ident(); got != "auto" {
		t.Errorf("columns = %q", got)
	}
	if i, ok := c.named("header").content(); !ok || i != 0 {
		t.Errorf("header = %v %v", i, ok)
	}
	if c.named("missing") != nil {
		t.Error("named(missing) should be nil")
	}

	c, _, err = parseCall(`#image("a \"b\".png", alt: "x")`, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := c.text(); !ok || s != `a "b".png` {
		t.Errorf("text() = %q %v", s, ok)
	}

	c, _, err = parseCall(`#text(size: 0.8em, fill: rgb("#000"))[x]`, 0)
	if err != nil {
		t.Fatal(err)
	}
	if em, ok := c.named("size").em(); !ok || em != 0.8 {
		t.Errorf("em = %v %v", em, ok)
	}
	if _, ok := c.named("size").millimetres(); ok {
		t.Error("em should not convert to millimetres")
	}
}
