// Package wasmobject implements handler objects as WebAssembly core modules.
//
// A module supports a capability by exporting one function per slot, named
// "<Capability>#<slot>":
//
//	(func (export "InputHandler#on_input") (param i32) ...)
//
// Arguments are passed as core values:
//
//	bool u8 u16 u32 s8 s16 s32 char   i32
//	u64 s64                           i64
//	f32                               f32
//	f64                               f64
//
// String arguments need a canonical ABI and are not supported.
//
// Usage:
//
//	rt := wasmobject.NewRuntime(ctx, def)
//	defer rt.Close(ctx)
//
//	obj, err := rt.Load(ctx, "echo", wasmBytes)
//	if err != nil {
//	    return err
//	}
//	sys.Insert(obj)
//
// Objects implement registry.Dropper, so Clear on the owning registry closes
// their module instances.
package wasmobject
