package typst

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// call is a function call in code mode: #name(args)[body]. Content blocks
// are replaced by $N placeholders before parsing, so the grammar never
// sees markup.
//
//nolint:govet // participle grammar tags are not standard struct tags
type call struct {
	Set  bool     `@"set"?`
	Name string   `@Ident ( @"." @Ident )*`
	Args []*arg   `( "(" ( @@ ( "," @@ )* ","? )? ")" )?`
	Body []string `@Content*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type arg struct {
	Name  string `( @Ident ":" )?`
	Value *value `@@`
}

// value is a string, length, number, content block, call or group. A bare
// identifier such as auto parses as a call without arguments.
//
//nolint:govet // participle grammar tags are not standard struct tags
type value struct {
	String  *string  `  @String`
	Length  *string  `| @Length`
	Number  *float64 `| @Number`
	Content *string  `| @Content`
	Group   []*arg   `| "(" ( @@ ( "," @@ )* ","? )? ")"`
	Call    *call    `| @@`
}

var callLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Content", Pattern: `\$[0-9]+`},
	{Name: "Length", Pattern: `-?[0-9]+(?:\.[0-9]+)?(?:mm|cm|pt|in|em|fr|%)`},
	{Name: "Number", Pattern: `-?[0-9]+(?:\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Punct", Pattern: `[(),.:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var callParser = participle.MustBuild[call](
	participle.Lexer(callLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// positional returns the unnamed arguments in order.
func (c *call) positional() []*value {
	var out []*value
	for _, a := range c.Args {
		if a.Name == "" {
			out = append(out, a.Value)
		}
	}
	return out
}

// named returns the value of a named argument, or nil.
func (c *call) named(name string) *value {
	for _, a := range c.Args {
		if a.Name == name {
			return a.Value
		}
	}
	return nil
}

// text returns the first positional string argument.
func (c *call) text() (string, bool) {
	for _, v := range c.positional() {
		if v.String != nil {
			return *v.String, true
		}
	}
	return "", false
}

// content returns the index of a content placeholder.
func (v *value) content() (int, bool) {
	if v == nil || v.Content == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(*v.Content, "$"))
	return n, err == nil
}

// ident reports a bare identifier such as auto or none.
func (v *value) ident() string {
	if v == nil || v.Call == nil || v.Call.Args != nil || v.Call.Body != nil || v.Call.Set {
		return ""
	}
	return v.Call.Name
}

// millimetres converts an absolute length. Relative lengths (em, fr, %)
// report false.
func (v *value) millimetres() (float64, bool) {
	if v == nil || v.Length == nil {
		return 0, false
	}
	s := *v.Length
	units := []struct {
		suffix string
		factor float64
	}{{"mm", 1}, {"cm", 10}, {"in", 25.4}, {"pt", 25.4 / 72}}
	for _, u := range units {
		if num, ok := strings.CutSuffix(s, u.suffix); ok {
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, false
			}
			return math.Round(f*u.factor*100) / 100, true
		}
	}
	return 0, false
}

// em returns a length in em, or false for other units.
func (v *value) em() (float64, bool) {
	if v == nil || v.Length == nil {
		return 0, false
	}
	num, ok := strings.CutSuffix(*v.Length, "em")
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(num, 64)
	return f, err == nil
}

// scanned is a call cut out of markup by the bracket scanner.
type scanned struct {
	src    string
	blocks []string
	// starts holds the offset of each block's first character.
	starts []int
	end    int
}

// scanError is an unbalanced construct at an offset of the scanned input.
type scanError struct {
	off int
	msg string
}

func (e *scanError) Error() string { return e.msg }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}

// scanCall reads the call starting at s[i] == '#'. The call source keeps
// arguments verbatim except for content blocks, which are cut out.
func scanCall(s string, i int) (*scanned, error) {
	sc := &scanned{}
	var b strings.Builder
	j := i + 1
	ident := func() string {
		start := j
		for j < len(s) && (isIdent(s[j]) || (s[j] == '.' && j+1 < len(s) && isIdentStart(s[j+1]))) {
			j++
		}
		return s[start:j]
	}
	name := ident()
	if name == "set" && j < len(s) && s[j] == ' ' {
		for j < len(s) && s[j] == ' ' {
			j++
		}
		name += " " + ident()
	}
	b.WriteString(name)

	for j < len(s) && (s[j] == '(' || s[j] == '[') {
		if s[j] == '[' {
			end, err := sc.content(s, j, &b)
			if err != nil {
				return nil, err
			}
			j = end
			continue
		}
		end, err := sc.args(s, j, &b)
		if err != nil {
			return nil, err
		}
		j = end
	}
	sc.src = b.String()
	sc.end = j
	return sc, nil
}

// args copies a parenthesized argument list starting at s[i] == '('.
func (sc *scanned) args(s string, i int, b *strings.Builder) (int, error) {
	depth := 0
	for j := i; j < len(s); {
		switch c := s[j]; c {
		case '"':
			end := stringEnd(s, j)
			if end < 0 {
				return 0, &scanError{off: j, msg: "unterminated string"}
			}
			b.WriteString(s[j:end])
			j = end
		case '[':
			end, err := sc.content(s, j, b)
			if err != nil {
				return 0, err
			}
			j = end
		case '(':
			depth++
			b.WriteByte(c)
			j++
		case ')':
			depth--
			b.WriteByte(c)
			j++
			if depth == 0 {
				return j, nil
			}
		default:
			b.WriteByte(c)
			j++
		}
	}
	return 0, &scanError{off: i, msg: "unclosed parenthesis"}
}

// content cuts out a content block starting at s[i] == '[' and writes its
// placeholder.
func (sc *scanned) content(s string, i int, b *strings.Builder) (int, error) {
	end, err := contentEnd(s, i)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(b, "$%d", len(sc.blocks))
	sc.blocks = append(sc.blocks, s[i+1:end-1])
	sc.starts = append(sc.starts, i+1)
	return end, nil
}

// contentEnd returns the offset after the bracket closing s[i] == '['.
// Escapes, raw text and nested calls are skipped.
func contentEnd(s string, i int) (int, error) {
	depth := 0
	for j := i; j < len(s); {
		switch s[j] {
		case '\\':
			j += 2
		case '`':
			if k := strings.IndexByte(s[j+1:], '`'); k >= 0 {
				j += k + 2
			} else {
				j++
			}
		case '#':
			if j+1 < len(s) && isIdentStart(s[j+1]) {
				sc, err := scanCall(s, j)
				if err != nil {
					return 0, err
				}
				j = sc.end
			} else {
				j++
			}
		case '[':
			depth++
			j++
		case ']':
			depth--
			j++
			if depth == 0 {
				return j, nil
			}
		default:
			j++
		}
	}
	return 0, &scanError{off: i, msg: "unclosed bracket"}
}

// stringEnd returns the offset after the quote closing s[i] == '"', or -1.
func stringEnd(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		case '\n':
			return -1
		}
	}
	return -1
}

// parseCall scans and parses the call at s[i].
func parseCall(s string, i int) (*call, *scanned, error) {
	sc, err := scanCall(s, i)
	if err != nil {
		return nil, nil, err
	}
	c, err := callParser.ParseString("", sc.src)
	if err != nil {
		return nil, nil, &scanError{off: i, msg: fmt.Sprintf("invalid call #%s: %v", sc.src, err)}
	}
	return c, sc, nil
}
