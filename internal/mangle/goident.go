package mangle

import (
	"go/token"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// GoSanitized converts s to a valid Go identifier, replacing any rune that is
// neither a Unicode letter nor a decimal digit with '_' and prefixing with '_' if the result
// would collide with a Go keyword or fail to start with a letter.
func GoSanitized(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)

	r, _ := utf8.DecodeRuneInString(s)
	if token.Lookup(s).IsKeyword() || !unicode.IsLetter(r) {
		return "_" + s
	}
	return s
}

// PackageName derives a safe Go package name from the last path component of
// an import path.
func PackageName(importPath string) string {
	return GoSanitized(path.Base(importPath))
}
