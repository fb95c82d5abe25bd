package schema

import (
	"unicode"

	"go.bytecodealliance.org/wit"
)

// IsPrimitive reports whether t is a WIT primitive value type that a signal
// argument may carry.
func IsPrimitive(t wit.Type) bool {
	switch t.(type) {
	case wit.Bool,
		wit.U8, wit.U16, wit.U32, wit.U64,
		wit.S8, wit.S16, wit.S32, wit.S64,
		wit.F32, wit.F64,
		wit.Char, wit.String:
		return true
	default:
		return false
	}
}

// IsIdentifier reports whether s is a valid system, capability, signal, slot
// or argument name: a letter or underscore followed by letters, digits and
// underscores.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
