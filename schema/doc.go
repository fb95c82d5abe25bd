// Package schema describes handler systems: named capabilities, the signals
// each capability answers and the slot method that handles every signal.
//
// A System is normally assembled with a Builder, which validates the whole
// description and reports every problem at once:
//
//	def, err := schema.NewBuilder("System").
//	    Capability("MouseHandler").
//	    Signal("click", "on_click", "x: u64", "y: u64").
//	    Signal("hover", "on_hover").
//	    Capability("InputHandler").
//	    Signal("input", "on_input", "input: char").
//	    Build()
//
// Argument types are WIT primitive value types (bool, u8 through u64, s8
// through s64, f32, f64, char, string), resolved with the WIT type parser.
//
// Systems can be registered in a Context, which rejects a second system with
// the same name.
package schema
