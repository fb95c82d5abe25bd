package system

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/handler-system/errors"
)

var (
	typeBool    = reflect.TypeOf(false)
	typeU8      = reflect.TypeOf(uint8(0))
	typeU16     = reflect.TypeOf(uint16(0))
	typeU32     = reflect.TypeOf(uint32(0))
	typeU64     = reflect.TypeOf(uint64(0))
	typeS8      = reflect.TypeOf(int8(0))
	typeS16     = reflect.TypeOf(int16(0))
	typeS32     = reflect.TypeOf(int32(0))
	typeS64     = reflect.TypeOf(int64(0))
	typeF32     = reflect.TypeOf(float32(0))
	typeF64     = reflect.TypeOf(float64(0))
	typeChar    = reflect.TypeOf(rune(0))
	typeString  = reflect.TypeOf("")
	typeContext = reflect.TypeOf((*context.Context)(nil)).Elem()
	typeError   = reflect.TypeOf((*error)(nil)).Elem()
)

// GoType returns the Go type that arguments of WIT type t are delivered as.
// It returns nil for types a signal cannot carry.
func GoType(t wit.Type) reflect.Type {
	switch t.(type) {
	case wit.Bool:
		return typeBool
	case wit.U8:
		return typeU8
	case wit.U16:
		return typeU16
	case wit.U32:
		return typeU32
	case wit.U64:
		return typeU64
	case wit.S8:
		return typeS8
	case wit.S16:
		return typeS16
	case wit.S32:
		return typeS32
	case wit.S64:
		return typeS64
	case wit.F32:
		return typeF32
	case wit.F64:
		return typeF64
	case wit.Char:
		return typeChar
	case wit.String:
		return typeString
	default:
		return nil
	}
}

// Convert converts v to the Go representation of WIT type t.
// Integers of any Go kind are accepted for integer types when the value is
// in range; chars accept runes, in-range integers and one-rune strings.
func Convert(v any, t wit.Type) (any, error) {
	out, ok := convert(v, t)
	if !ok {
		return nil, errors.New(errors.PhaseBroadcast, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", v)).
			WitType(witName(t)).
			Value(v).
			Build()
	}
	return out, nil
}

func convert(v any, t wit.Type) (any, bool) {
	switch t.(type) {
	case wit.Bool:
		b, ok := v.(bool)
		return b, ok
	case wit.String:
		s, ok := v.(string)
		return s, ok
	case wit.U8:
		u, ok := toUnsigned(v, 8)
		return uint8(u), ok
	case wit.U16:
		u, ok := toUnsigned(v, 16)
		return uint16(u), ok
	case wit.U32:
		u, ok := toUnsigned(v, 32)
		return uint32(u), ok
	case wit.U64:
		u, ok := toUnsigned(v, 64)
		return u, ok
	case wit.S8:
		i, ok := toSigned(v, 8)
		return int8(i), ok
	case wit.S16:
		i, ok := toSigned(v, 16)
		return int16(i), ok
	case wit.S32:
		i, ok := toSigned(v, 32)
		return int32(i), ok
	case wit.S64:
		i, ok := toSigned(v, 64)
		return i, ok
	case wit.F32:
		f, ok := toFloat(v)
		if !ok || (!math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32) {
			return nil, false
		}
		return float32(f), true
	case wit.F64:
		f, ok := toFloat(v)
		return f, ok
	case wit.Char:
		return toChar(v)
	default:
		return nil, false
	}
}

func toUnsigned(v any, bits int) (uint64, bool) {
	rv := reflect.ValueOf(v)
	var u uint64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < 0 {
			return 0, false
		}
		u = uint64(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u = rv.Uint()
	default:
		return 0, false
	}
	if bits < 64 && u > 1<<bits-1 {
		return 0, false
	}
	return u, true
}

func toSigned(v any, bits int) (int64, bool) {
	rv := reflect.ValueOf(v)
	var i int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		i = int64(u)
	default:
		return 0, false
	}
	if bits < 64 {
		lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
		if i < lo || i > hi {
			return 0, false
		}
	}
	return i, true
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}

func toChar(v any) (any, bool) {
	if s, ok := v.(string); ok {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) || (r == utf8.RuneError && size == 1) {
			return nil, false
		}
		return r, true
	}
	i, ok := toSigned(v, 32)
	if !ok || !utf8.ValidRune(rune(i)) {
		return nil, false
	}
	return rune(i), true
}

// Parse converts text to the Go representation of WIT type t.
// Chars take exactly one rune; everything else uses strconv syntax.
func Parse(t wit.Type, text string) (any, error) {
	var (
		v   any
		err error
	)
	switch t.(type) {
	case wit.Bool:
		v, err = strconv.ParseBool(text)
	case wit.String:
		v = text
	case wit.Char:
		v = text
	case wit.U8, wit.U16, wit.U32, wit.U64:
		v, err = strconv.ParseUint(text, 0, 64)
	case wit.S8, wit.S16, wit.S32, wit.S64:
		v, err = strconv.ParseInt(text, 0, 64)
	case wit.F32, wit.F64:
		v, err = strconv.ParseFloat(text, 64)
	default:
		return nil, errors.Unsupported(errors.PhaseBroadcast, nil, fmt.Sprintf("argument type %T", t))
	}
	if err != nil {
		return nil, errors.New(errors.PhaseBroadcast, errors.KindInvalidData).
			WitType(witName(t)).
			Value(text).
			Cause(err).
			Detail("cannot parse %q", text).
			Build()
	}
	return Convert(v, t)
}

func witName(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.U16:
		return "u16"
	case wit.U32:
		return "u32"
	case wit.U64:
		return "u64"
	case wit.S8:
		return "s8"
	case wit.S16:
		return "s16"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	default:
		return fmt.Sprintf("%T", t)
	}
}
