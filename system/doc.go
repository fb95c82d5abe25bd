// Package system binds a schema to a registry.
//
// A System declares one registry capability per schema capability. Objects
// are inserted through the system, which checks that each capability value
// they expose can serve every slot of that capability:
//
//	type button struct{ label string }
//
//	func (b *button) As(c string) (any, bool) {
//	    if c == "MouseHandler" {
//	        return b, true
//	    }
//	    return nil, false
//	}
//
//	func (b *button) OnClick(x, y uint64) { fmt.Println(b.label, "clicked at", x, y) }
//	func (b *button) OnHover()            {}
//
//	sys, _ := system.New(def, registry.DefaultOptions())
//	sys.Insert(&button{label: "ok"})
//	sys.Emit(ctx, "click", uint64(10), uint64(20))
//
// # Slot Binding
//
// A slot named on_click is served by a method OnClick (names are compared in
// kebab case). The method may take a leading context.Context and may return
// an error. Its remaining parameters must match the Go kinds of the WIT
// argument types:
//
//	bool            bool
//	u8 u16 u32 u64  uint8 uint16 uint32 uint64
//	s8 s16 s32 s64  int8 int16 int32 int64
//	f32 f64         float32 float64
//	char            rune
//	string          string
//
// Capability values implementing handlersystem.SlotInvoker receive every
// call through InvokeSlot instead.
//
// # Arguments
//
// Emit converts each argument to the declared type, accepting any Go integer
// that fits for integer types. Parse does the same for text input.
package system
