package encoding

import "testing"

func TestEscapeXML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Hello World", "Hello World"},
		{"ampersand", "Tom & Jerry", "Tom &amp; Jerry"},
		{"less than", "a < b", "a &lt; b"},
		{"quotes", `He said "hello"`, "He said &#34;hello&#34;"},
		{"unicode", "日本語 & émoji 🎉", "日本語 &amp; émoji 🎉"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeXML(tt.input); got != tt.want {
				t.Errorf("EscapeXML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`<a href="x">Tom & Jerry</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&lt;/a&gt;"
	if got != want {
		t.Errorf("EscapeHTML() = %q, want %q", got, want)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Hello world", "Hello world"},
		{"emphasis markers", "a*b_c", `a\*b\_c`},
		{"backslash", `C:\dir`, `C:\\dir`},
		{"link brackets", "[x](y)", `\[x\](y)`},
		{"heading marker", "# not a heading", `\# not a heading`},
		{"bullet at start", "- item", `\- item`},
		{"dash mid line", "a - b", "a - b"},
		{"ordinal at start", "1. first", `1\. first`},
		{"number mid line", "version 1.2", "version 1.2"},
		{"setext underline", "===", `\===`},
		{"second line", "a\n+ b", "a\n\\+ b"},
		{"indented bullet", "a\n - b", "a\n \\- b"},
		{"indented ordinal", "a\n    1. x", "a\n    1\\. x"},
		{"tab before plus", "\t+ y", "\t\\+ y"},
		{"dash after word", "a -b", "a -b"},
		{"pipe", "a|b", `a\|b`},
		{"entity", "&amp;", `\&amp;`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeMarkdown(tt.input); got != tt.want {
				t.Errorf("EscapeMarkdown(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeTypst(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"#set", `\#set`},
		{"= title", `\= title`},
		{"a * b", `a \* b`},
		{"http://x", `http:\/\/x`},
		{"3. item", `3\. item`},
		{"[x]", `\[x\]`},
		{"a\n  - b", "a\n  \\- b"},
		{"  12. x", `  12\. x`},
	}
	for _, tt := range tests {
		if got := EscapeTypst(tt.input); got != tt.want {
			t.Errorf("EscapeTypst(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEscapeQuoted(t *testing.T) {
	if got, want := EscapeQuoted(`say "hi" \o/`), `say \"hi\" \\o/`; got != want {
		t.Errorf("EscapeQuoted() = %q, want %q", got, want)
	}
}

func TestEscapeRTF(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Hello", "Hello"},
		{"braces", `{a}\b`, `\{a\}\\b`},
		{"newline", "a\nb", `a\line b`},
		{"latin", "é", `\u233?`},
		{"high bmp", "€", `\u8364?`},
		{"negative code", "\uFFFD", `\u-3?`},
		{"astral", "😀", `\u-10179?\u-8704?`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeRTF(tt.input); got != tt.want {
				t.Errorf("EscapeRTF(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeMarkdownURL(t *testing.T) {
	tests := []struct{ input, want string }{
		{"https://example.com/a.png", "https://example.com/a.png"},
		{"", "<>"},
		{"a b(c).png", "<a b(c).png>"},
		{`dir\x<y>`, `<dir\\x\<y\>>`},
	}
	for _, tt := range tests {
		if got := EscapeMarkdownURL(tt.input); got != tt.want {
			t.Errorf("EscapeMarkdownURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
