// Package mangle implements the deterministic string transforms that turn
// descriptor full-names into target-language (Go) identifiers.
package mangle

import "strings"

// reserved is the fixed table of Go identifiers a mangled field name must
// never collide with. Kept intentionally small: field names are almost
// never Go keywords once they come from a .proto identifier, but "type"
// shows up constantly (e.g. a field literally named "type").
var reserved = map[string]bool{
	"type":        true,
	"break":       true,
	"case":        true,
	"chan":        true,
	"const":       true,
	"continue":    true,
	"default":     true,
	"defer":       true,
	"else":        true,
	"fallthrough": true,
	"for":         true,
	"func":        true,
	"go":          true,
	"goto":        true,
	"if":          true,
	"import":      true,
	"interface":   true,
	"map":         true,
	"package":     true,
	"range":       true,
	"return":      true,
	"select":      true,
	"struct":      true,
	"switch":      true,
	"var":         true,
}

// Type flattens a descriptor full-name ("pkg.sub.Msg.Nested") into a flat Go
// identifier ("pkg_sub_Msg_Nested"). Mangling is deterministic, and distinct
// full-names whose components contain no underscores never collide. Dots and
// underscores fold to the same character, so full-names that differ only in
// where those fall ("a_b.c" and "a.b_c") map to the same identifier.
func Type(fullName string) string {
	return strings.ReplaceAll(fullName, ".", "_")
}

// Field returns name verbatim unless it collides with a reserved word, in
// which case a trailing underscore is appended.
func Field(name string) string {
	if reserved[name] {
		return name + "_"
	}
	return name
}

// Table returns the mangled constant name for a message's decoding or
// encoding table, e.g. DECODING_TABLE_pkg_sub_Msg.
func Table(kind string, fullName string) string {
	return kind + "_" + Type(fullName)
}
