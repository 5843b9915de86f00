package lsp

import (
	"fortio.org/safecast"
	"go.lsp.dev/protocol"

	"github.com/marcuscaisey/luals/lua/token"
)

func newPosition(p token.Position) protocol.Position {
	return protocol.Position{
		Line:      toUint32(p.Line - 1),
		Character: toUint32(p.ColumnUTF16()),
	}
}

// newRange creates a [protocol.Range] from a [token.CharacterRange].
func newRange(rang token.CharacterRange) protocol.Range {
	return protocol.Range{
		Start: newPosition(rang.Start()),
		End:   newPosition(rang.End()),
	}
}

// toUint32 converts n to a protocol coordinate. Negative values become 0.
func toUint32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return v
}

// tokenPosition converts a zero-based position received from the client into a [token.Position] in file, whose
// column is a byte offset.
func tokenPosition(file *token.File, pos protocol.Position) token.Position {
	line := int(pos.Line) + 1
	return token.Position{
		File:   file,
		Line:   line,
		Column: file.ByteColumn(line, int(pos.Character)),
	}
}
