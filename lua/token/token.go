// Package token declares the type representing a lexical token of Lua code.
package token

import (
	"cmp"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

func init() {
	for i := range typesEnd {
		if _, ok := typeStrings[i]; !ok {
			panic(fmt.Sprintf("typeStrings is missing entry for Type %d", i))
		}
	}
}

// PlaceholderPrefix marks a local as intentionally unused when it starts its name.
const PlaceholderPrefix = "_"

//go:generate go run golang.org/x/tools/cmd/stringer -type Type

// Type is the type of a lexical token of Lua code.
type Type int

// The list of all token types.
const (
	Illegal Type = iota
	EOF

	// Keywords
	keywordsStart
	And
	Break
	Do
	Else
	Elseif
	End
	False
	For
	Function
	If
	In
	Local
	Nil
	Not
	Or
	Repeat
	Return
	Then
	True
	Until
	While
	keywordsEnd

	// Literals
	Ident
	String
	Number
	Comment

	// Symbols
	Plus
	Minus
	Asterisk
	Slash
	DoubleSlash
	Percent
	Caret
	Hash
	EqualEqual
	TildeEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	Equal
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	Semicolon
	Colon
	Comma
	Dot
	DotDot
	Ellipsis

	typesEnd
)

// typeStrings holds the lexeme of each type, used when formatting a type for an error message.
var typeStrings = map[Type]string{
	Illegal:       "illegal",
	EOF:           "EOF",
	keywordsStart: "keywordsStart",
	And:           "and",
	Break:         "break",
	Do:            "do",
	Else:          "else",
	Elseif:        "elseif",
	End:           "end",
	False:         "false",
	For:           "for",
	Function:      "function",
	If:            "if",
	In:            "in",
	Local:         "local",
	Nil:           "nil",
	Not:           "not",
	Or:            "or",
	Repeat:        "repeat",
	Return:        "return",
	Then:          "then",
	True:          "true",
	Until:         "until",
	While:         "while",
	keywordsEnd:   "keywordsEnd",
	Ident:         "identifier",
	String:        "string",
	Number:        "number",
	Comment:       "comment",
	Plus:          "+",
	Minus:         "-",
	Asterisk:      "*",
	Slash:         "/",
	DoubleSlash:   "//",
	Percent:       "%",
	Caret:         "^",
	Hash:          "#",
	EqualEqual:    "==",
	TildeEqual:    "~=",
	Less:          "<",
	LessEqual:     "<=",
	Greater:       ">",
	GreaterEqual:  ">=",
	Equal:         "=",
	LeftParen:     "(",
	RightParen:    ")",
	LeftBrace:     "{",
	RightBrace:    "}",
	LeftBracket:   "[",
	RightBracket:  "]",
	Semicolon:     ";",
	Colon:         ":",
	Comma:         ",",
	Dot:           ".",
	DotDot:        "..",
	Ellipsis:      "...",
}

var keywordTypesByIdent = func() map[string]Type {
	keywordTypesByIdent := make(map[string]Type, keywordsEnd-keywordsStart)
	for i := keywordsStart + 1; i < keywordsEnd; i++ {
		keywordTypesByIdent[typeStrings[i]] = i
	}
	return keywordTypesByIdent
}()

// IdentType returns the type of the keyword with the given identifier, or Ident if the identifier is not a
// keyword.
func IdentType(ident string) Type {
	if keywordType, ok := keywordTypesByIdent[ident]; ok {
		return keywordType
	}
	return Ident
}

// IsKeyword reports whether t is a reserved word.
func (t Type) IsKeyword() bool {
	return t > keywordsStart && t < keywordsEnd
}

// Format implements fmt.Formatter. All verbs have the default behaviour, except for 'm' (message) which formats the
// type for use in an error message.
func (t Type) Format(f fmt.State, verb rune) {
	switch verb {
	case 'm':
		fmt.Fprintf(f, "'%s'", typeStrings[t])
	case 's', 'v':
		fmt.Fprint(f, t.String())
	default:
		fmt.Fprintf(f, fmt.FormatString(f, verb), int(t))
	}
}

// IsValidIdent reports whether s is a syntactically valid identifier which is not a keyword.
func IsValidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '_' || 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' {
			continue
		}
		if i > 0 && '0' <= ch && ch <= '9' {
			continue
		}
		return false
	}
	return IdentType(s) == Ident
}

// Token is a lexical token of Lua code.
type Token struct {
	StartPos Position // Position of the first character of the token
	EndPos   Position // Position of the character immediately after the token
	Type     Type
	Lexeme   string
}

// Start returns the position of the first character of the token.
func (t Token) Start() Position {
	return t.StartPos
}

// End returns the position of the character immediately after the token.
func (t Token) End() Position {
	return t.EndPos
}

func (t Token) String() string {
	return fmt.Sprintf("%s: %s [%s]", t.StartPos, t.Lexeme, t.Type)
}

// Position is a position in a file.
type Position struct {
	File   *File
	Line   int // 1-based line number
	Column int // 0-based byte offset from the start of the line
}

// Compare returns
//
//	-1 if p is comes before other in the file,
//	 0 if p and other are the same position,
//	+1 if p comes after other in the file.
func (p Position) Compare(other Position) int {
	if p.Line == other.Line {
		return cmp.Compare(p.Column, other.Column)
	}
	return cmp.Compare(p.Line, other.Line)
}

// ColumnUTF16 returns the column offset in UTF-16 code units.
func (p Position) ColumnUTF16() int {
	if p.File == nil {
		return p.Column
	}
	line := p.File.Line(p.Line)
	return len(utf16.Encode([]rune(string(line[:min(p.Column, len(line))]))))
}

func (p Position) String() string {
	var prefix string
	if p.File != nil && p.File.Name != "" {
		prefix = p.File.Name + ":"
	}
	return fmt.Sprintf("%s%d:%d", prefix, p.Line, p.Column+1)
}

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// Format implements fmt.Formatter. All verbs have the default behaviour, except for 'm' (message) which formats the
// position for use in an error message. Columns formatted with 'm' are display columns.
func (p Position) Format(f fmt.State, verb rune) {
	switch verb {
	case 'm':
		var prefix string
		if p.File != nil && p.File.Name != "" {
			prefix = cyan(p.File.Name) + ":"
		}
		col := p.Column + 1
		if p.File != nil {
			line := p.File.Line(p.Line)
			col = runewidth.StringWidth(string(line[:min(p.Column, len(line))])) + 1
		}
		fmt.Fprint(f, prefix, yellow(p.Line), ":", yellow(col))
	case 's', 'v':
		fmt.Fprint(f, p.String())
	default:
		fmt.Fprintf(f, fmt.FormatString(f, verb), p)
	}
}

// CharacterRange is an interface which describes a range of characters in the source code.
type CharacterRange interface {
	Start() Position // Start returns the position of the first character of the range.
	End() Position   // End returns the position of the character immediately after the range.
}

// Range is a concrete [CharacterRange].
type Range struct {
	StartPos Position
	EndPos   Position
}

// NewRange returns the range spanning from the start of start to the end of end.
func NewRange(start, end CharacterRange) Range {
	return Range{StartPos: start.Start(), EndPos: end.End()}
}

// Start implements [CharacterRange].
func (r Range) Start() Position {
	return r.StartPos
}

// End implements [CharacterRange].
func (r Range) End() Position {
	return r.EndPos
}

// File is a simple representation of a file.
type File struct {
	Name        string
	contents    []byte
	lineOffsets []int
}

// NewFile returns a new File with the given contents.
func NewFile(name string, contents []byte) *File {
	f := &File{
		Name:     name,
		contents: contents,
	}
	f.lineOffsets = append(f.lineOffsets, 0)
	for i := 0; i < len(contents); i++ {
		if contents[i] == '\n' {
			f.lineOffsets = append(f.lineOffsets, i+1)
		}
	}
	return f
}

// NumLines returns the number of lines in the file.
func (f *File) NumLines() int {
	return len(f.lineOffsets)
}

// Line returns the nth line of the file without its line terminator. Out of range lines are empty.
func (f *File) Line(n int) []byte {
	if n < 1 || n > len(f.lineOffsets) {
		return nil
	}
	low := f.lineOffsets[n-1]
	high := len(f.contents)
	if n < len(f.lineOffsets) {
		high = f.lineOffsets[n] - 1 // -1 to exclude the newline
	}
	line := f.contents[low:high]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line
}

// ByteColumn converts a column measured in UTF-16 code units on line n into a 0-based byte offset. Columns past
// the end of the line are clamped to the line length.
func (f *File) ByteColumn(n int, utf16Col int) int {
	line := f.Line(n)
	units := 0
	for offset := 0; offset < len(line); {
		if units >= utf16Col {
			return offset
		}
		r, size := utf8.DecodeRune(line[offset:])
		units += len(utf16.Encode([]rune{r}))
		offset += size
	}
	return len(line)
}
