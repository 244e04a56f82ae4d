package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
)

type state int

const (
	stateStart state = iota
	stateParagraph
	stateList
	stateTable
	stateFence
)

var (
	atxRe       = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*?))?(?:[ \t]+#+)?[ \t]*$`)
	setext1Re   = regexp.MustCompile(`^ {0,3}=+[ \t]*$`)
	setext2Re   = regexp.MustCompile(`^ {0,3}-+[ \t]*$`)
	thematicRe  = regexp.MustCompile(`^ {0,3}(?:(?:\*[ \t]*){3,}|(?:-[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	listRe      = regexp.MustCompile(`^([ \t]*)([-*+]|[0-9]{1,9}[.)])(?:[ \t]+(.*))?$`)
	fenceRe     = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
	delimRe     = regexp.MustCompile(`^[ \t]*\|?[ \t]*:?-+:?[ \t]*(?:\|[ \t]*:?-+:?[ \t]*)*\|?[ \t]*$`)
	quoteRe     = regexp.MustCompile(`^ {0,3}>`)
	htmlBlockRe = regexp.MustCompile(`(?i)^ {0,3}<(?:!--|/?(?:address|article|aside|blockquote|details|div|dl|fieldset|figure|footer|form|h[1-6]|header|hr|main|nav|ol|p|pre|section|table|ul)(?:[\s/>]|$))`)
)

// blockParser is the line state machine. Open blocks accumulate raw lines
// and are converted to elements when flushed.
type blockParser struct {
	load docbridge.Loader
	body []cdm.Element

	state state

	para     []string
	verbatim bool

	lists []*listFrame

	table *cdm.Table

	fence      string
	fenceLine  int
	fenceLines []string
}

type listFrame struct {
	indent   int
	numbered bool
	entries  []listEntry
}

// listEntry is either an item's raw inline text or a nested list.
type listEntry struct {
	text string
	sub  *listFrame
}

func (p *blockParser) parse(content string) error {
	if danglingBackslash(content) {
		return errors.NewParse(Name, strings.Count(content, "\n")+1, "dangling backslash at end of input")
	}
	lines := strings.Split(content, "\n")

	for i := 0; i < len(lines); i++ {
		n := i + 1
		line := strings.TrimRight(lines[i], "\r")

		if p.state == stateFence {
			if closesFence(line, p.fence) {
				p.body = append(p.body, cdm.Paragraph{Children: []cdm.Element{
					cdm.T(strings.Join(p.fenceLines, "\n")),
				}})
				p.state = stateStart
				p.fenceLines = nil
			} else {
				p.fenceLines = append(p.fenceLines, line)
			}
			continue
		}

		if seq, bad := invalidEscape(line); bad {
			return errors.NewParse(Name, n, fmt.Sprintf("invalid escape sequence %q", seq))
		}

		if strings.TrimSpace(line) == "" {
			if err := p.flush(); err != nil {
				return err
			}
			continue
		}

		if p.state == stateParagraph && !p.verbatim {
			if level := setextLevel(line); level > 0 {
				title, err := plainInline(strings.Join(p.para, " "))
				if err != nil {
					return err
				}
				p.body = append(p.body, cdm.Header{Level: level, Text: title})
				p.para = nil
				p.state = stateStart
				continue
			}
		}

		if p.state == stateTable {
			if isTableLine(line) {
				if err := p.tableRow(line, n); err != nil {
					return err
				}
				continue
			}
			if err := p.flush(); err != nil {
				return err
			}
		}

		switch {
		case openFence(line) != "":
			if err := p.flush(); err != nil {
				return err
			}
			p.state = stateFence
			p.fence = openFence(line)
			p.fenceLine = n

		case atxRe.MatchString(line):
			if err := p.flush(); err != nil {
				return err
			}
			m := atxRe.FindStringSubmatch(line)
			title, err := plainInline(m[2])
			if err != nil {
				return err
			}
			p.body = append(p.body, cdm.Header{Level: len(m[1]), Text: title})

		case thematicRe.MatchString(line) || quoteRe.MatchString(line) || htmlBlockRe.MatchString(line):
			if p.state != stateParagraph || !p.verbatim {
				if err := p.flush(); err != nil {
					return err
				}
				p.state = stateParagraph
				p.verbatim = true
			}
			p.para = append(p.para, line)

		case isTableLine(line) && i+1 < len(lines) && delimRe.MatchString(lines[i+1]):
			if err := p.flush(); err != nil {
				return err
			}
			if err := p.startTable(line, lines[i+1], n+1); err != nil {
				return err
			}
			i++

		case listRe.MatchString(line):
			m := listRe.FindStringSubmatch(line)
			if p.state != stateList {
				if err := p.flush(); err != nil {
					return err
				}
			}
			numbered := m[2][0] >= '0' && m[2][0] <= '9'
			if err := p.listItem(indentWidth(m[1]), numbered, m[3]); err != nil {
				return err
			}

		case p.state == stateList:
			p.continueItem(strings.TrimSpace(line))

		case p.state == stateParagraph:
			p.para = append(p.para, line)

		default:
			p.state = stateParagraph
			p.verbatim = false
			p.para = []string{line}
		}
	}

	if p.state == stateFence {
		return errors.NewParse(Name, p.fenceLine, "unterminated code fence")
	}
	return p.flush()
}

// flush converts the open block into an element and returns to Start.
func (p *blockParser) flush() error {
	switch p.state {
	case stateParagraph:
		text := strings.Join(p.para, "\n")
		if p.verbatim {
			p.body = append(p.body, cdm.Paragraph{Children: []cdm.Element{cdm.T(text)}})
		} else {
			elems, err := parseInline(text, p.load)
			if err != nil {
				return err
			}
			p.body = append(p.body, reconcile.Single(elems))
		}
		p.para = nil
		p.verbatim = false
	case stateList:
		for len(p.lists) > 1 {
			p.popList()
		}
		list, err := p.buildList(p.lists[0])
		if err != nil {
			return err
		}
		p.body = append(p.body, list)
		p.lists = nil
	case stateTable:
		p.body = append(p.body, *p.table)
		p.table = nil
	}
	p.state = stateStart
	return nil
}

func setextLevel(line string) int {
	switch {
	case setext1Re.MatchString(line):
		return 1
	case setext2Re.MatchString(line):
		return 2
	}
	return 0
}

// openFence returns the fence marker opening a code block, or "". A
// backtick fence's info string may not contain backticks.
func openFence(line string) string {
	m := fenceRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	if m[1][0] == '`' && strings.Contains(line[len(m[0]):], "`") {
		return ""
	}
	return m[1]
}

func closesFence(line, open string) bool {
	t := strings.TrimLeft(line, " ")
	if len(line)-len(t) > 3 {
		return false
	}
	t = strings.TrimRight(t, " \t")
	if len(t) < len(open) {
		return false
	}
	return strings.Trim(t, open[:1]) == ""
}

// invalidEscape reports a backslash followed by an ASCII letter or digit
// outside code spans.
func invalidEscape(line string) (string, bool) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '`':
			j := i
			for j < len(line) && line[j] == '`' {
				j++
			}
			if k := closingRun(line, j, j-i); k >= 0 {
				i = k + (j - i) - 1
			} else {
				i = j - 1
			}
		case '\\':
			if i+1 >= len(line) {
				continue
			}
			if c := line[i+1]; isAlnum(c) {
				return line[i : i+2], true
			}
			i++
		}
	}
	return "", false
}

// closingRun returns the start of the next backtick run of exactly n
// backticks at or after from, or -1.
func closingRun(line string, from, n int) int {
	for i := from; i < len(line); {
		if line[i] != '`' {
			i++
			continue
		}
		j := i
		for j < len(line) && line[j] == '`' {
			j++
		}
		if j-i == n {
			return i
		}
		i = j
	}
	return -1
}

func danglingBackslash(content string) bool {
	n := 0
	for i := len(content) - 1; i >= 0 && content[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func indentWidth(ws string) int {
	w := 0
	for _, c := range ws {
		if c == '\t' {
			w += 4 - w%4
		} else {
			w++
		}
	}
	return w
}

// Tables

func isTableLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}

func (p *blockParser) startTable(header, delim string, delimLine int) error {
	heads := splitRow(header)
	if cols := splitRow(delim); len(cols) != len(heads) {
		return errors.NewParse(Name, delimLine, fmt.Sprintf(
			"table delimiter row has %d columns, header row has %d", len(cols), len(heads)))
	}
	t := &cdm.Table{Headers: make([]cdm.TableHeader, len(heads))}
	for i, h := range heads {
		cell, err := p.cell(h)
		if err != nil {
			return err
		}
		t.Headers[i] = cdm.TableHeader{Element: cell}
	}
	p.table = t
	p.state = stateTable
	return nil
}

func (p *blockParser) tableRow(line string, n int) error {
	cells := splitRow(line)
	if len(cells) != len(p.table.Headers) {
		return errors.NewParse(Name, n, fmt.Sprintf(
			"table row has %d cells, header row has %d", len(cells), len(p.table.Headers)))
	}
	row := cdm.TableRow{Cells: make([]cdm.TableCell, len(cells))}
	for i, c := range cells {
		cell, err := p.cell(c)
		if err != nil {
			return err
		}
		row.Cells[i] = cdm.TableCell{Element: cell}
	}
	p.table.Rows = append(p.table.Rows, row)
	return nil
}

func (p *blockParser) cell(s string) (cdm.Element, error) {
	elems, err := parseInline(s, p.load)
	if err != nil {
		return nil, err
	}
	return reconcile.Single(elems), nil
}

// splitRow splits a pipe-table line on unescaped pipes, dropping the
// optional outer pipes.
func splitRow(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	if strings.HasSuffix(s, "|") && !escapedAt(s, len(s)-1) {
		s = s[:len(s)-1]
	}
	var cells []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			b.WriteByte(s[i])
			b.WriteByte(s[i+1])
			i++
		case s[i] == '|':
			cells = append(cells, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteByte(s[i])
		}
	}
	return append(cells, strings.TrimSpace(b.String()))
}

// escapedAt reports whether s[i] is preceded by an odd number of
// backslashes.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// Lists

func (p *blockParser) top() *listFrame {
	if len(p.lists) == 0 {
		return nil
	}
	return p.lists[len(p.lists)-1]
}

// popList closes the innermost list, attaching it after its parent item.
func (p *blockParser) popList() {
	f := p.top()
	p.lists = p.lists[:len(p.lists)-1]
	parent := p.top()
	parent.entries = append(parent.entries, listEntry{sub: f})
}

func (p *blockParser) listItem(indent int, numbered bool, text string) error {
	for len(p.lists) > 1 && indent < p.top().indent {
		p.popList()
	}
	top := p.top()
	switch {
	case top == nil || indent > top.indent:
		p.lists = append(p.lists, &listFrame{indent: indent, numbered: numbered})
	case numbered != top.numbered:
		if len(p.lists) == 1 {
			if err := p.flush(); err != nil {
				return err
			}
		} else {
			p.popList()
		}
		p.lists = append(p.lists, &listFrame{indent: indent, numbered: numbered})
	}
	top = p.top()
	top.entries = append(top.entries, listEntry{text: text})
	p.state = stateList
	return nil
}

// continueItem appends a lazy continuation line to the last item.
func (p *blockParser) continueItem(text string) {
	top := p.top()
	for i := len(top.entries) - 1; i >= 0; i-- {
		if top.entries[i].sub == nil {
			top.entries[i].text += "\n" + text
			return
		}
	}
	top.entries = append(top.entries, listEntry{text: text})
}

func (p *blockParser) buildList(f *listFrame) (cdm.List, error) {
	list := cdm.List{Numbered: f.numbered, Items: make([]cdm.ListItem, 0, len(f.entries))}
	for _, e := range f.entries {
		if e.sub != nil {
			sub, err := p.buildList(e.sub)
			if err != nil {
				return cdm.List{}, err
			}
			list.Items = append(list.Items, cdm.ListItem{Element: sub})
			continue
		}
		elems, err := parseInline(e.text, p.load)
		if err != nil {
			return cdm.List{}, err
		}
		list.Items = append(list.Items, cdm.ListItem{Element: reconcile.Single(elems)})
	}
	return list, nil
}
