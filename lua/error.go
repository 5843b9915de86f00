package lua

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/marcuscaisey/luals/lua/token"
)

// Error describes an error which can be attributed to a range of characters in Lua source code.
type Error struct {
	Msg   string
	Start token.Position
	End   token.Position
}

// NewError creates a [*Error] with the given message and range.
func NewError(charRange token.CharacterRange, message string) error {
	return NewErrorf(charRange, "%s", message)
}

// NewErrorf creates a [*Error].
// The error message is constructed from the given format string and arguments, as in [fmt.Sprintf].
func NewErrorf(charRange token.CharacterRange, format string, args ...any) error {
	return &Error{
		Msg:   fmt.Sprintf(format, args...),
		Start: charRange.Start(),
		End:   charRange.End(),
	}
}

// Error formats the error as <line>:<column>: <message> where line and column are 1-based and the column is counted
// in bytes.
func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Start.Line, e.Start.Column+1, e.Msg)
}

var (
	bold  = color.New(color.Bold).SprintFunc()
	red   = color.New(color.FgRed, color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

// Highlight formats the error by displaying the error message and highlighting the range of characters in the source
// code that the error applies to. severity is displayed before the message.
//
// For example:
//
//	test.lua:2:7: error: unfinished string
//	print("bar)
//	      ~~~~~
func (e *Error) Highlight(severity string) string {
	var b strings.Builder
	buildString := func() string {
		return strings.TrimSuffix(b.String(), "\n")
	}

	fmt.Fprintf(&b, "%s %s %s\n", bold(fmt.Sprintf("%m:", e.Start)), red(severity+":"), bold(e.Msg))

	if e.Start.File == nil {
		return buildString()
	}
	lines := make([]string, e.End.Line-e.Start.Line+1)
	for i := e.Start.Line; i <= e.End.Line; i++ {
		line := e.Start.File.Line(i)
		if !utf8.Valid(line) {
			// The source can't be displayed, so the message stands on its own.
			return buildString()
		}
		lines[i-e.Start.Line] = string(line)
	}

	printLine := func(line string) {
		fmt.Fprintln(&b, faint(line))
	}
	printLineHighlight := func(line string, start, end int) {
		start = min(start, len(line))
		end = min(max(end, start), len(line))
		leadingWhitespace := strings.Repeat(" ", runewidth.StringWidth(line[:start]))
		tildes := strings.Repeat("~", max(runewidth.StringWidth(line[start:end]), 1))
		fmt.Fprintln(&b, leadingWhitespace+red(tildes))
	}

	printLine(lines[0])
	if len(lines) == 1 {
		printLineHighlight(lines[0], e.Start.Column, e.End.Column)
	} else {
		printLineHighlight(lines[0], e.Start.Column, len(lines[0]))
		for _, line := range lines[1 : len(lines)-1] {
			printLine(line)
			printLineHighlight(line, 0, len(line))
		}
		if lastLine := lines[len(lines)-1]; len(lastLine) > 0 {
			printLine(lastLine)
			printLineHighlight(lastLine, 0, e.End.Column)
		}
	}

	return buildString()
}

// Errors is a list of [*Error]s.
type Errors []*Error

// Add adds a [*Error] to the list of errors.
// The parameters are the same as for [NewError].
func (e *Errors) Add(charRange token.CharacterRange, message string) {
	*e = append(*e, NewError(charRange, message).(*Error))
}

// Addf adds a [*Error] to the list of errors.
// The parameters are the same as for [NewErrorf].
func (e *Errors) Addf(charRange token.CharacterRange, format string, args ...any) {
	*e = append(*e, NewErrorf(charRange, format, args...).(*Error))
}

// Sort sorts the errors by their start position.
func (e Errors) Sort() {
	slices.SortStableFunc(e, func(e1, e2 *Error) int {
		return e1.Start.Compare(e2.Start)
	})
}

// Error formats the errors by concatenating their messages after sorting them by their start position.
func (e Errors) Error() string {
	if len(e) == 0 {
		panic("Error called on empty error list")
	}
	e.Sort()
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Err returns the error list unchanged if its non-empty, otherwise nil.
// This should be used to return an [Errors] from a function as an [error] so that it becomes an untyped nil if there
// are no errors.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
