// Package handlersystem provides a registry of heterogeneous objects that
// broadcasts named signals to the objects supporting a matching capability.
//
// A system is described declaratively as a set of capabilities, each exposing
// signals of the form signal(args) => slot. Objects advertise the capabilities
// they implement through a probe, the registry records capability membership
// once at insertion, and a broadcast visits only the members of one
// capability.
//
// # Architecture Overview
//
//	handlersystem/       Root package with the Object and SlotInvoker contracts
//	├── registry/        Dense object store, stable handles, capability indices, dispatch
//	├── schema/          Capability/signal/slot declarations and registration context
//	├── system/          Schema-bound registry with typed argument checking and slot binding
//	├── wasmobject/      Objects implemented as WebAssembly core modules
//	├── errors/          Structured error types
//	└── cmd/handlerctl/  Scenario runner and interactive TUI
//
// # Quick Start
//
// Declare a schema, bind it, insert objects and emit signals:
//
//	def, err := schema.NewBuilder("System").
//		Capability("MouseHandler").
//		Signal("click", "on_click", "x: u64", "y: u64").
//		Signal("hover", "on_hover").
//		Capability("InputHandler").
//		Signal("input", "on_input", "input: char").
//		Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sys, err := system.New(def, registry.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	h, err := sys.Insert(&Button{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	n, err := sys.Emit(ctx, "click", uint64(10), uint64(20))
//
//	obj, ok := sys.Remove(h)
//
// Callers that prefer compile-time checked broadcasts can use the registry
// package directly with registry.Signal and registry.Broadcast.
//
// # Handles
//
// Handles are never reused. Removing an object invalidates its handle only;
// every other handle keeps resolving to its object even though objects move
// inside the dense store.
//
// # Thread Safety
//
// Registry and System are single-owner and not synchronized. Wrap a Registry
// in registry.Locked for coarse-grained exclusive access.
package handlersystem
