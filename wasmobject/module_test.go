package wasmobject

// Hand-assembled core modules for tests. Every module declares two mutable
// i32 globals: $calls counts slot invocations and $last stores the first
// argument of the latest call.

const (
	i32 = 0x7f
	i64 = 0x7e
)

// Instructions used by test bodies.
var (
	opCount = []byte{
		0x23, 0x00, // global.get $calls
		0x41, 0x01, // i32.const 1
		0x6a,       // i32.add
		0x24, 0x00, // global.set $calls
	}
	opStoreI32    = []byte{0x20, 0x00, 0x24, 0x01}       // local.get 0; global.set $last
	opStoreI64    = []byte{0x20, 0x00, 0xa7, 0x24, 0x01} // local.get 0; i32.wrap_i64; global.set $last
	opReadCalls   = []byte{0x23, 0x00}
	opReadLast    = []byte{0x23, 0x01}
	opUnreachable = []byte{0x00}
)

type testFunc struct {
	export  string
	params  []byte
	results []byte
	body    []byte
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func uleb(n int) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func vec(items [][]byte) []byte {
	return concat(uleb(len(items)), concat(items...))
}

func section(id byte, content []byte) []byte {
	return concat([]byte{id}, uleb(len(content)), content)
}

func wasmName(s string) []byte {
	return concat(uleb(len(s)), []byte(s))
}

// assemble builds a module exporting every function in funcs.
func assemble(funcs ...testFunc) []byte {
	var types, decls, exports, bodies [][]byte
	for i, f := range funcs {
		types = append(types, concat([]byte{0x60}, uleb(len(f.params)), f.params, uleb(len(f.results)), f.results))
		decls = append(decls, uleb(i))
		exports = append(exports, concat(wasmName(f.export), []byte{0x00}, uleb(i)))
		body := concat([]byte{0x00}, f.body, []byte{0x0b})
		bodies = append(bodies, concat(uleb(len(body)), body))
	}

	global := []byte{i32, 0x01, 0x41, 0x00, 0x0b} // (mut i32) (i32.const 0)
	globals := [][]byte{global, global}

	return concat(
		[]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		section(1, vec(types)),
		section(3, vec(decls)),
		section(6, vec(globals)),
		section(7, vec(exports)),
		section(10, vec(bodies)),
	)
}

func probes() []testFunc {
	return []testFunc{
		{export: "calls", results: []byte{i32}, body: opReadCalls},
		{export: "last", results: []byte{i32}, body: opReadLast},
	}
}

// inputModule implements InputHandler.
func inputModule() []byte {
	return assemble(append(probes(),
		testFunc{export: "InputHandler#on_input", params: []byte{i32}, body: concat(opCount, opStoreI32)},
	)...)
}

// widgetModule implements MouseHandler and InputHandler.
func widgetModule() []byte {
	return assemble(append(probes(),
		testFunc{export: "MouseHandler#on_click", params: []byte{i64, i64}, body: concat(opCount, opStoreI64)},
		testFunc{export: "MouseHandler#on_hover", body: opCount},
		testFunc{export: "InputHandler#on_input", params: []byte{i32}, body: concat(opCount, opStoreI32)},
	)...)
}

// partialModule exports only one MouseHandler slot.
func partialModule() []byte {
	return assemble(testFunc{export: "MouseHandler#on_click", params: []byte{i64, i64}, body: opCount})
}

// mistypedModule takes i64 where char needs i32.
func mistypedModule() []byte {
	return assemble(testFunc{export: "InputHandler#on_input", params: []byte{i64}, body: opCount})
}

// trapModule traps on every input.
func trapModule() []byte {
	return assemble(testFunc{export: "InputHandler#on_input", params: []byte{i32}, body: opUnreachable})
}
