// Package encoding provides shared text escaping for the markup formats.
package encoding

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
	"unicode/utf16"
)

// EscapeXML escapes special characters for XML content.
// Uses the standard library's xml.EscapeText for proper escaping.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// EscapeHTML escapes special characters for HTML content.
// Escapes: & < > "
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// markdownSpecial are escaped anywhere in a line.
const markdownSpecial = "\\`*_[]<>&|#"

// EscapeMarkdown escapes inline markup characters and the markers that
// would open a block at the start of a line, after any indentation. Only
// ASCII punctuation is ever preceded by a backslash.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	lineStart := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if lineStart {
			switch {
			case c == '-' || c == '+' || c == '=' || c == '~':
				b.WriteByte('\\')
			case c >= '0' && c <= '9':
				j := i
				for j < len(s) && s[j] >= '0' && s[j] <= '9' {
					j++
				}
				if j < len(s) && (s[j] == '.' || s[j] == ')') {
					b.WriteString(s[i:j])
					b.WriteByte('\\')
					b.WriteByte(s[j])
					i = j
					lineStart = false
					continue
				}
			}
		}
		if strings.IndexByte(markdownSpecial, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
		lineStart = c == '\n' || (lineStart && (c == ' ' || c == '\t'))
	}
	return b.String()
}

// EscapeMarkdownURL formats a link destination. Destinations containing
// spaces, parentheses, angle brackets or backslashes use the <...> form.
func EscapeMarkdownURL(s string) string {
	if s != "" && !strings.ContainsAny(s, " ()<>\\\t\n") {
		return s
	}
	r := strings.NewReplacer("\\", "\\\\", "<", "\\<", ">", "\\>", "\n", " ")
	return "<" + r.Replace(s) + ">"
}

// EscapeQuoted escapes backslashes and double quotes for a "..." literal,
// as used by markdown link titles and Typst strings.
func EscapeQuoted(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}

// typstSpecial are escaped anywhere in Typst markup.
const typstSpecial = "\\#*_`$<>@[]~/"

// EscapeTypst escapes Typst markup characters and line-leading markers,
// including markers after indentation.
func EscapeTypst(s string) string {
	var b strings.Builder
	lineStart := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if lineStart {
			switch {
			case c == '=' || c == '-' || c == '+':
				b.WriteByte('\\')
			case c >= '0' && c <= '9':
				j := i
				for j < len(s) && s[j] >= '0' && s[j] <= '9' {
					j++
				}
				if j < len(s) && s[j] == '.' {
					b.WriteString(s[i:j])
					b.WriteString("\\.")
					i = j
					lineStart = false
					continue
				}
			}
		}
		if strings.IndexByte(typstSpecial, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
		lineStart = c == '\n' || (lineStart && (c == ' ' || c == '\t'))
	}
	return b.String()
}

// EscapeRTF escapes RTF control characters and encodes non-ASCII runes as
// \uN? sequences with UTF-16 surrogate pairs where needed.
func EscapeRTF(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString("\\line ")
		case r == '\t':
			b.WriteString("\\tab ")
		case r == '\r':
		case r < 0x80:
			b.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			writeRTFUnicode(&b, r1)
			writeRTFUnicode(&b, r2)
		default:
			writeRTFUnicode(&b, r)
		}
	}
	return b.String()
}

func writeRTFUnicode(b *strings.Builder, r rune) {
	b.WriteString("\\u")
	b.WriteString(strconv.Itoa(int(int16(uint16(r)))))
	b.WriteByte('?')
}
