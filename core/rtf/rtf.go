// Package rtf provides pure Go RTF tokenizing, reading and writing.
//
// Parse builds the group tree, Read interprets it into paragraphs of styled
// spans and table rows, and Writer produces the subset of RTF that Read
// understands.
package rtf

import (
	"bytes"
	"fmt"
	"strconv"
)

// maxDepth bounds group nesting.
const maxDepth = 512

// Document represents a parsed RTF document.
type Document struct {
	root *Group
}

// Group represents an RTF group (content within braces).
type Group struct {
	children []interface{} // *Group, ControlWord, string or Binary
}

// ControlWord represents an RTF control word or control symbol.
type ControlWord struct {
	Word     string
	Param    int
	HasParam bool
}

// Binary is the payload of a \binN control word.
type Binary []byte

// SyntaxError reports malformed RTF at a 1-based line.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parse parses RTF data and returns a Document.
func Parse(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("{\\rtf")) {
		return nil, &SyntaxError{Line: 1, Message: "missing {\\rtf header"}
	}

	parser := &rtfParser{data: data}
	root, err := parser.parseGroup(0)
	if err != nil {
		return nil, err
	}
	for ; parser.pos < len(parser.data); parser.pos++ {
		switch parser.data[parser.pos] {
		case ' ', '\t', '\r', '\n', 0:
		default:
			return nil, parser.errorf("unexpected data after the document group")
		}
	}
	return &Document{root: root}, nil
}

// Root returns the outermost group.
func (doc *Document) Root() *Group {
	return doc.root
}

// Children returns the group's tokens in order.
func (g *Group) Children() []interface{} {
	return g.children
}

// Destination returns the first control word of the group, skipping the
// \* marker, and whether the group was marked ignorable.
func (g *Group) Destination() (string, bool) {
	ignorable := false
	for _, c := range g.children {
		cw, ok := c.(ControlWord)
		if !ok {
			return "", ignorable
		}
		if cw.Word == "*" {
			ignorable = true
			continue
		}
		return cw.Word, ignorable
	}
	return "", ignorable
}

type rtfParser struct {
	data []byte
	pos  int
}

func (p *rtfParser) line() int {
	end := p.pos
	if end > len(p.data) {
		end = len(p.data)
	}
	return bytes.Count(p.data[:end], []byte{'\n'}) + 1
}

func (p *rtfParser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Line: p.line(), Message: fmt.Sprintf(format, args...)}
}

func (p *rtfParser) parseGroup(depth int) (*Group, error) {
	if depth > maxDepth {
		return nil, p.errorf("groups nested deeper than %d", maxDepth)
	}
	p.pos++ // consume '{'

	group := &Group{}
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case '}':
			p.pos++
			return group, nil

		case '{':
			nested, err := p.parseGroup(depth + 1)
			if err != nil {
				return nil, err
			}
			group.children = append(group.children, nested)

		case '\\':
			cw, err := p.parseControlWord()
			if err != nil {
				return nil, err
			}
			if cw.Word == "bin" && cw.HasParam {
				bin, err := p.parseBinary(cw.Param)
				if err != nil {
					return nil, err
				}
				group.children = append(group.children, bin)
				continue
			}
			group.children = append(group.children, cw)

		case '\r', '\n':
			p.pos++

		default:
			if text := p.parseText(); text != "" {
				group.children = append(group.children, text)
			}
		}
	}
	return nil, p.errorf("unbalanced braces: group not closed")
}

func (p *rtfParser) parseControlWord() (ControlWord, error) {
	p.pos++ // consume '\'
	if p.pos >= len(p.data) {
		return ControlWord{}, p.errorf("unexpected end after backslash")
	}

	ch := p.data[p.pos]

	if ch == '\'' {
		if p.pos+2 >= len(p.data) {
			return ControlWord{}, p.errorf("truncated hex escape")
		}
		v, err := strconv.ParseUint(string(p.data[p.pos+1:p.pos+3]), 16, 8)
		if err != nil {
			return ControlWord{}, p.errorf("invalid hex escape %q", p.data[p.pos+1:p.pos+3])
		}
		p.pos += 3
		return ControlWord{Word: "'", Param: int(v), HasParam: true}, nil
	}

	if isLetter(ch) {
		start := p.pos
		for p.pos < len(p.data) && isLetter(p.data[p.pos]) {
			p.pos++
		}
		word := string(p.data[start:p.pos])

		var param int
		var hasParam bool
		if p.pos < len(p.data) && (p.data[p.pos] == '-' || isDigit(p.data[p.pos])) {
			numStart := p.pos
			if p.data[p.pos] == '-' {
				p.pos++
			}
			for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
				p.pos++
			}
			n, err := strconv.Atoi(string(p.data[numStart:p.pos]))
			if err != nil {
				return ControlWord{}, p.errorf("invalid parameter for \\%s", word)
			}
			param, hasParam = n, true
		}

		// A single space delimits the control word and is not text.
		if p.pos < len(p.data) && p.data[p.pos] == ' ' {
			p.pos++
		}
		return ControlWord{Word: word, Param: param, HasParam: hasParam}, nil
	}

	p.pos++
	return ControlWord{Word: string(ch)}, nil
}

func (p *rtfParser) parseBinary(n int) (Binary, error) {
	if n < 0 || p.pos+n > len(p.data) {
		return nil, p.errorf("\\bin%d exceeds the input", n)
	}
	bin := Binary(bytes.Clone(p.data[p.pos : p.pos+n]))
	p.pos += n
	return bin, nil
}

func (p *rtfParser) parseText() string {
	var buf bytes.Buffer
	for p.pos < len(p.data) {
		ch := p.data[p.pos]
		if ch == '{' || ch == '}' || ch == '\\' {
			break
		}
		if ch != '\r' && ch != '\n' {
			buf.WriteByte(ch)
		}
		p.pos++
	}
	return buf.String()
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
