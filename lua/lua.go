// Package lua implements functionality used by most packages.
package lua

// Builtins maps the names of the global values that are built-in to the language to their type descriptors.
var Builtins = map[string]string{
	"print":        "function(...)",
	"type":         "function(v)",
	"tostring":     "function(v)",
	"tonumber":     "function(v, base)",
	"error":        "function(message, level)",
	"assert":       "function(v, message)",
	"pairs":        "function(t)",
	"ipairs":       "function(t)",
	"next":         "function(t, k)",
	"select":       "function(n, ...)",
	"pcall":        "function(f, ...)",
	"rawget":       "function(t, k)",
	"rawset":       "function(t, k, v)",
	"rawequal":     "function(a, b)",
	"rawlen":       "function(v)",
	"setmetatable": "function(t, mt)",
	"getmetatable": "function(t)",
	"unpack":       "function(t, i, j)",
	"require":      "function(name)",
	"string":       "table",
	"table":        "table",
	"math":         "table",
	"os":           "table",
	"io":           "table",
	"_G":           "table",
	"_VERSION":     "string",
}
