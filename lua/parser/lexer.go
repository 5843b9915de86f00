package parser

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/marcuscaisey/luals/lua/token"
)

const eof = -1

// errorHandler is the function which handles syntax errors encountered during lexing.
// It's passed the offending token and a format string and arguments to construct an error message from.
type errorHandler func(tok token.Token, format string, args ...any)

// lexer converts Lua source code into lexical tokens.
// Tokens are read from the lexer using the Next method.
// Syntax errors are handled by calling the error handler function which can be set using SetErrorHandler. The default
// error handler is a no-op.
type lexer struct {
	src        []byte
	file       *token.File
	errHandler errorHandler

	ch           rune           // character currently being considered
	pos          token.Position // position of character currently being considered
	offset       int            // offset of character currently being considered
	readOffset   int            // offset of next character to be read
	lastReadSize int            // size of last rune read
}

// newLexer constructs a lexer which will lex the source code read from an io.Reader.
// filename is the name of the file being lexed.
func newLexer(r io.Reader, filename string) (*lexer, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	file := token.NewFile(filename, src)
	l := &lexer{
		src:        src,
		file:       file,
		errHandler: func(token.Token, string, ...any) {},
		pos: token.Position{
			File:   file,
			Line:   1,
			Column: 0,
		},
	}

	l.next()
	if l.ch == '#' && l.peek() == '!' {
		// Skip the shebang line.
		for l.ch != '\n' && l.ch != eof {
			l.next()
		}
	}

	return l, nil
}

// SetErrorHandler sets the error handler function which will be called when a syntax error is encountered.
func (l *lexer) SetErrorHandler(errHandler errorHandler) {
	l.errHandler = errHandler
}

// Next returns the next token. An EOF token is returned if the end of the source code has been reached.
func (l *lexer) Next() token.Token {
	l.skipWhitespace()

	startOffset := l.offset
	tok := token.Token{StartPos: l.pos}

	switch {
	case l.ch == eof:
		tok.Type = token.EOF
		tok.EndPos = l.pos
		return tok
	case l.ch == '-' && l.peek() == '-':
		tok.Type = token.Comment
		terminated := l.consumeComment()
		tok.EndPos = l.pos
		tok.Lexeme = string(l.src[startOffset:l.offset])
		if !terminated {
			tok.Type = token.Illegal
			l.errHandler(tok, "unfinished long comment")
		}
		return tok
	case l.ch == '"' || l.ch == '\'':
		terminated := l.consumeString()
		tok.EndPos = l.pos
		tok.Lexeme = string(l.src[startOffset:l.offset])
		if terminated {
			tok.Type = token.String
		} else {
			tok.Type = token.Illegal
			l.errHandler(tok, "unfinished string")
		}
		return tok
	case l.ch == '[' && (l.peek() == '[' || l.peek() == '='):
		if level, ok := l.longBracketLevel(); ok {
			terminated := l.consumeLongBracket(level)
			tok.EndPos = l.pos
			tok.Lexeme = string(l.src[startOffset:l.offset])
			if terminated {
				tok.Type = token.String
			} else {
				tok.Type = token.Illegal
				l.errHandler(tok, "unfinished long string")
			}
			return tok
		}
		tok.Type = token.LeftBracket
	case l.ch == '+':
		tok.Type = token.Plus
	case l.ch == '-':
		tok.Type = token.Minus
	case l.ch == '*':
		tok.Type = token.Asterisk
	case l.ch == '/':
		tok.Type = token.Slash
		if l.peek() == '/' {
			l.next()
			tok.Type = token.DoubleSlash
		}
	case l.ch == '%':
		tok.Type = token.Percent
	case l.ch == '^':
		tok.Type = token.Caret
	case l.ch == '#':
		tok.Type = token.Hash
	case l.ch == '=':
		tok.Type = token.Equal
		if l.peek() == '=' {
			l.next()
			tok.Type = token.EqualEqual
		}
	case l.ch == '~':
		if l.peek() != '=' {
			return l.illegal(tok)
		}
		l.next()
		tok.Type = token.TildeEqual
	case l.ch == '<':
		tok.Type = token.Less
		if l.peek() == '=' {
			l.next()
			tok.Type = token.LessEqual
		}
	case l.ch == '>':
		tok.Type = token.Greater
		if l.peek() == '=' {
			l.next()
			tok.Type = token.GreaterEqual
		}
	case l.ch == '(':
		tok.Type = token.LeftParen
	case l.ch == ')':
		tok.Type = token.RightParen
	case l.ch == '{':
		tok.Type = token.LeftBrace
	case l.ch == '}':
		tok.Type = token.RightBrace
	case l.ch == '[':
		tok.Type = token.LeftBracket
	case l.ch == ']':
		tok.Type = token.RightBracket
	case l.ch == ';':
		tok.Type = token.Semicolon
	case l.ch == ':':
		tok.Type = token.Colon
	case l.ch == ',':
		tok.Type = token.Comma
	case l.ch == '.' && isDigit(l.peek()):
		tok.Type = token.Number
		tok.Lexeme = l.consumeNumber()
		tok.EndPos = l.pos
		return tok
	case l.ch == '.':
		tok.Type = token.Dot
		if l.peek() == '.' {
			l.next()
			tok.Type = token.DotDot
			if l.peek() == '.' {
				l.next()
				tok.Type = token.Ellipsis
			}
		}
	case isDigit(l.ch):
		tok.Type = token.Number
		tok.Lexeme = l.consumeNumber()
		tok.EndPos = l.pos
		return tok
	case isAlpha(l.ch):
		ident := l.consumeIdent()
		tok.EndPos = l.pos
		tok.Type = token.IdentType(ident)
		tok.Lexeme = ident
		return tok
	default:
		return l.illegal(tok)
	}

	l.next()
	tok.EndPos = l.pos
	tok.Lexeme = string(l.src[startOffset:l.offset])

	return tok
}

func (l *lexer) illegal(tok token.Token) token.Token {
	ch := l.ch
	l.next()
	tok.EndPos = l.pos
	tok.Type = token.Illegal
	tok.Lexeme = string(ch)
	l.errHandler(tok, "unexpected symbol %#U", ch)
	return tok
}

func (l *lexer) skipWhitespace() {
	for isWhitespace(l.ch) {
		l.next()
	}
}

// consumeComment consumes a short comment up to the end of the line or a long comment up to its closing bracket.
// It reports whether a long comment was terminated.
func (l *lexer) consumeComment() bool {
	l.next() // -
	l.next() // -
	if l.ch == '[' {
		if level, ok := l.longBracketLevel(); ok {
			return l.consumeLongBracket(level)
		}
	}
	for l.ch != '\n' && l.ch != eof {
		l.next()
	}
	return true
}

// longBracketLevel reports the level of the opening long bracket at the current character, such as 0 for [[ and 2 for
// [==[, without consuming anything.
func (l *lexer) longBracketLevel() (int, bool) {
	i := l.offset + 1
	level := 0
	for i < len(l.src) && l.src[i] == '=' {
		level++
		i++
	}
	return level, i < len(l.src) && l.src[i] == '['
}

// consumeLongBracket consumes a long bracket of the given level, starting at its opening [. It reports whether the
// closing bracket was found.
func (l *lexer) consumeLongBracket(level int) bool {
	for range level + 2 {
		l.next()
	}
	closing := "]" + strings.Repeat("=", level) + "]"
	for l.ch != eof {
		if l.ch == ']' && strings.HasPrefix(string(l.src[l.offset:]), closing) {
			for range len(closing) {
				l.next()
			}
			return true
		}
		l.next()
	}
	return false
}

func (l *lexer) consumeNumber() string {
	var b strings.Builder
	write := func() {
		b.WriteRune(l.ch)
		l.next()
	}
	if l.ch == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		write()
		write()
		for isHexDigit(l.ch) || l.ch == '.' {
			write()
		}
		if l.ch == 'p' || l.ch == 'P' {
			write()
			if l.ch == '+' || l.ch == '-' {
				write()
			}
			for isDigit(l.ch) {
				write()
			}
		}
		return b.String()
	}
	for isDigit(l.ch) {
		write()
	}
	if l.ch == '.' {
		write()
		for isDigit(l.ch) {
			write()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		write()
		if l.ch == '+' || l.ch == '-' {
			write()
		}
		for isDigit(l.ch) {
			write()
		}
	}
	return b.String()
}

// consumeString consumes a quoted string and reports whether it was terminated before the end of the line.
func (l *lexer) consumeString() bool {
	quote := l.ch
	l.next()
	for {
		switch l.ch {
		case eof, '\n', '\r':
			return false
		case '\\':
			l.next()
			if l.ch == eof {
				return false
			}
			l.next()
			continue
		}
		ch := l.ch
		l.next()
		if ch == quote {
			return true
		}
	}
}

func (l *lexer) consumeIdent() string {
	var b strings.Builder
	for isAlphaNumeric(l.ch) {
		b.WriteRune(l.ch)
		l.next()
	}
	return b.String()
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\r', '\t', '\n', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

func isAlpha(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r == '_'
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}

// next reads the next character into l.ch and advances the lexer.
// If the end of the source code has been reached, l.ch is set to eof.
func (l *lexer) next() {
	if l.ch == eof {
		return
	}

	l.offset = l.readOffset

	if l.ch == '\n' {
		l.pos.Line++
		l.pos.Column = 0
	} else {
		l.pos.Column += l.lastReadSize
	}

	if l.readOffset == len(l.src) {
		l.ch = eof
		return
	}

	r, size := utf8.DecodeRune(l.src[l.readOffset:])
	l.lastReadSize = size
	l.readOffset += size

	if r == utf8.RuneError && size == 1 {
		tok := token.Token{
			StartPos: l.pos,
			EndPos:   l.pos,
			Type:     token.Illegal,
			Lexeme:   string(l.src[l.offset : l.offset+1]),
		}
		tok.EndPos.Column++
		l.errHandler(tok, "invalid UTF-8 byte %#x", l.src[l.offset])
		l.ch = utf8.RuneError
		return
	}

	l.ch = r
}

// peek returns the next character without advancing the lexer.
// If the end of the source code has been reached, eof is returned.
func (l *lexer) peek() rune {
	if l.readOffset >= len(l.src) {
		return eof
	}
	return rune(l.src[l.readOffset])
}
