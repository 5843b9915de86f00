package analysis

import (
	"strings"

	"github.com/marcuscaisey/luals/lua/ast"
	"github.com/marcuscaisey/luals/lua/token"
)

// binding is a local variable introduced by a declaration.
type binding struct {
	ID    ast.ScopeID
	Decl  *ast.Ident
	Type  string
	Param bool // Param reports whether the binding is a function parameter or implicit self.
	used  bool
}

// scope represents a lexical scope and keeps track of the locals declared in that scope.
type scope struct {
	bindings []*binding          // in declaration order
	latest   map[string]*binding // latest binding of each name
}

func newScope() *scope {
	return &scope{latest: map[string]*binding{}}
}

// beginScope creates a new scope and returns a function that ends the scope.
// Ending the scope reports every local declared in it which was never read.
func (c *checker) beginScope() func() {
	c.scopes = append(c.scopes, newScope())
	return func() {
		s := c.scopes[len(c.scopes)-1]
		c.scopes = c.scopes[:len(c.scopes)-1]
		if !c.unusedCheck {
			return
		}
		for _, b := range s.bindings {
			if b.used || b.Param || strings.HasPrefix(b.Decl.Name(), token.PlaceholderPrefix) {
				continue
			}
			c.addf(b.Decl, TagUnused, "unused local %s", b.Decl.Name())
		}
	}
}

// declare binds ident as a new local in the innermost scope, reporting if it masks a local which is already visible.
func (c *checker) declare(ident *ast.Ident, typ string, param bool) *binding {
	name := ident.Name()
	if name != token.PlaceholderPrefix {
		if prev, ok := c.lookup(name); ok {
			c.addf(ident, TagMask, "local %s masks earlier declaration on line %d", name, prev.Decl.Start().Line)
		}
	}
	c.lastScopeID++
	b := &binding{
		ID:    c.lastScopeID,
		Decl:  ident,
		Type:  typ,
		Param: param,
	}
	s := c.scopes[len(c.scopes)-1]
	s.bindings = append(s.bindings, b)
	s.latest[name] = b
	ident.Scope = b.ID
	ident.Type = typ
	return b
}

// lookup returns the innermost visible local with the given name.
func (c *checker) lookup(name string) (*binding, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i].latest[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// read resolves an identifier which is being read and returns its type.
func (c *checker) read(ident *ast.Ident) string {
	if b, ok := c.lookup(ident.Name()); ok {
		b.used = true
		ident.Scope = b.ID
		ident.Type = b.Type
		return b.Type
	}
	ident.Scope = ast.GlobalScope
	ident.Type = c.globalType(ident.Name())
	c.globalReads = append(c.globalReads, ident)
	return ident.Type
}

// write resolves an identifier which is being assigned a value of type typ.
func (c *checker) write(ident *ast.Ident, typ string) {
	if b, ok := c.lookup(ident.Name()); ok {
		ident.Scope = b.ID
		if c.strictMode && b.Type != typeAny && b.Type != typeNil && typ != typeAny && !sameType(b.Type, typ) {
			c.addf(ident, TagType, "cannot assign %s to local %s of type %s", typ, ident.Name(), b.Type)
			ident.Type = b.Type
			return
		}
		if !c.strictMode || b.Type == typeNil {
			b.Type = typ
		}
		ident.Type = b.Type
		return
	}
	ident.Scope = ast.GlobalScope
	c.globalTypes[ident.Name()] = typ
	c.globalWrites[ident.Name()] = true
	ident.Type = typ
}
