package registry

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func dispatchInput(reg *Registry, r rune) int {
	input, _ := reg.Lookup("Input")
	return reg.Dispatch(input, func(_ Handle, impl any) {
		impl.(*node).OnInput(r)
	})
}

func TestDispatch_OnlySupportingObjects(t *testing.T) {
	reg := NewWithDefaults("Input")
	a, b, c := newNode("a", "Input"), newNode("b"), newNode("c", "Input")
	ha, _, hc := reg.Insert(a), reg.Insert(b), reg.Insert(c)

	var order []Handle
	input, _ := reg.Lookup("Input")
	n := reg.Dispatch(input, func(h Handle, impl any) {
		order = append(order, h)
		impl.(*node).OnInput('x')
	})

	if n != 2 {
		t.Fatalf("Dispatch called %d slots, want 2", n)
	}
	if len(order) != 2 || order[0] != ha || order[1] != hc {
		t.Fatalf("visit order = %v, want [%d %d]", order, ha, hc)
	}
	if len(a.inputs) != 1 || len(c.inputs) != 1 {
		t.Fatal("a and c should each receive one input")
	}
	if len(b.inputs) != 0 {
		t.Fatal("b does not support Input and must not be called")
	}
}

func TestDispatch_EvictsRemoved(t *testing.T) {
	reg := NewWithDefaults("Input")
	input, _ := reg.Lookup("Input")
	a := newNode("a", "Input")
	h := reg.Insert(a)
	reg.Remove(h)

	obs := &testObserver{}
	reg.Subscribe(obs)

	if n := dispatchInput(reg, 'x'); n != 0 {
		t.Fatalf("Dispatch called %d slots, want 0", n)
	}
	if len(a.inputs) != 0 {
		t.Fatal("removed object must not be called")
	}
	if reg.IndexLen(input) != 0 {
		t.Fatalf("stale entry should be evicted, len = %d", reg.IndexLen(input))
	}
	if len(obs.events) != 1 || obs.events[0].Type != EventEvicted || obs.events[0].Handle != h {
		t.Fatalf("events = %+v", obs.events)
	}
	if obs.events[0].Capability != "Input" {
		t.Fatalf("evicted capability = %q", obs.events[0].Capability)
	}
}

func TestDispatch_EvictionChecksSwappedEntry(t *testing.T) {
	reg := NewWithDefaults("Input")
	input, _ := reg.Lookup("Input")

	nodes := make([]*node, 5)
	handles := make([]Handle, 5)
	for i := range nodes {
		nodes[i] = newNode("n", "Input")
		handles[i] = reg.Insert(nodes[i])
	}
	// Remove the first and the last: evicting index 0 swaps in the stale
	// last entry, which must be evicted too before moving on.
	reg.Remove(handles[0])
	reg.Remove(handles[4])

	if n := dispatchInput(reg, 'x'); n != 3 {
		t.Fatalf("Dispatch called %d slots, want 3", n)
	}
	if reg.IndexLen(input) != 3 {
		t.Fatalf("index len = %d, want 3", reg.IndexLen(input))
	}
	for i := 1; i < 4; i++ {
		if len(nodes[i].inputs) != 1 {
			t.Fatalf("node %d received %d inputs", i, len(nodes[i].inputs))
		}
	}
}

func TestDispatch_EmptyIndex(t *testing.T) {
	reg := NewWithDefaults("Input")
	reg.Insert(newNode("a"))
	if n := dispatchInput(reg, 'x'); n != 0 {
		t.Fatalf("Dispatch called %d slots", n)
	}
}

func TestDispatch_UndeclaredPanics(t *testing.T) {
	reg := NewWithDefaults("Input")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	reg.Dispatch(Capability(3), func(Handle, any) {})
}

func TestDispatchName(t *testing.T) {
	reg := NewWithDefaults("Input")
	reg.Insert(newNode("a", "Input"))

	n, ok := reg.DispatchName("Input", func(Handle, any) {})
	if !ok || n != 1 {
		t.Fatalf("DispatchName(Input) = %d, %v", n, ok)
	}
	if _, ok := reg.DispatchName("Mouse", func(Handle, any) {}); ok {
		t.Fatal("DispatchName of undeclared capability should fail")
	}
}

func TestDispatch_SlotInsertsNotVisited(t *testing.T) {
	reg := NewWithDefaults("Input")
	input, _ := reg.Lookup("Input")
	reg.Insert(newNode("a", "Input"))
	reg.Insert(newNode("b", "Input"))

	var spawned []*node
	n := reg.Dispatch(input, func(_ Handle, impl any) {
		impl.(*node).OnInput('x')
		child := newNode("child", "Input")
		spawned = append(spawned, child)
		reg.Insert(child)
	})

	if n != 2 {
		t.Fatalf("Dispatch called %d slots, want 2", n)
	}
	for _, c := range spawned {
		if len(c.inputs) != 0 {
			t.Fatal("objects inserted during a pass must not be visited by it")
		}
	}
	if reg.IndexLen(input) != 4 {
		t.Fatalf("index len = %d, want 4", reg.IndexLen(input))
	}

	if n := dispatchInput(reg, 'y'); n != 4 {
		t.Fatalf("next Dispatch called %d slots, want 4", n)
	}
}

func TestDispatch_SlotRemovesLaterObject(t *testing.T) {
	reg := NewWithDefaults("Input")
	input, _ := reg.Lookup("Input")
	a, b := newNode("a", "Input"), newNode("b", "Input")
	ha, hb := reg.Insert(a), reg.Insert(b)

	n := reg.Dispatch(input, func(h Handle, impl any) {
		impl.(*node).OnInput('x')
		if h == ha {
			reg.Remove(hb)
		}
	})

	if n != 1 {
		t.Fatalf("Dispatch called %d slots, want 1", n)
	}
	if len(b.inputs) != 0 {
		t.Fatal("object removed earlier in the pass must not be called")
	}
	if reg.IndexLen(input) != 1 {
		t.Fatalf("index len = %d, want 1", reg.IndexLen(input))
	}
}

func TestDispatch_SlotRemovesItself(t *testing.T) {
	reg := NewWithDefaults("Input")
	input, _ := reg.Lookup("Input")
	nodes := []*node{newNode("a", "Input"), newNode("b", "Input"), newNode("c", "Input")}
	for _, n := range nodes {
		reg.Insert(n)
	}

	n := reg.Dispatch(input, func(h Handle, impl any) {
		impl.(*node).OnInput('x')
		reg.Remove(h)
	})
	if n != 3 {
		t.Fatalf("Dispatch called %d slots, want 3", n)
	}
	for _, nd := range nodes {
		if len(nd.inputs) != 1 {
			t.Fatalf("%s received %d inputs", nd.name, len(nd.inputs))
		}
	}
	if reg.Len() != 0 {
		t.Fatalf("Len() = %d", reg.Len())
	}

	dispatchInput(reg, 'y')
	if reg.IndexLen(input) != 0 {
		t.Fatalf("index len = %d after cleanup pass", reg.IndexLen(input))
	}
}

func TestDispatch_EvictionPreservesAppendedEntries(t *testing.T) {
	reg := NewWithDefaults("Input")
	input, _ := reg.Lookup("Input")
	a, b, c := newNode("a", "Input"), newNode("b", "Input"), newNode("c", "Input")
	reg.Insert(a)
	hb := reg.Insert(b)
	reg.Insert(c)
	reg.Remove(hb)

	var spawned []*node
	n := reg.Dispatch(input, func(_ Handle, impl any) {
		impl.(*node).OnInput('x')
		child := newNode("child", "Input")
		spawned = append(spawned, child)
		reg.Insert(child)
	})

	if n != 2 {
		t.Fatalf("Dispatch called %d slots, want 2", n)
	}
	for _, s := range spawned {
		if len(s.inputs) != 0 {
			t.Fatal("appended entry visited during eviction")
		}
	}
	if reg.IndexLen(input) != 4 {
		t.Fatalf("index len = %d, want 4", reg.IndexLen(input))
	}

	if n := dispatchInput(reg, 'y'); n != 4 {
		t.Fatalf("next Dispatch called %d slots, want 4", n)
	}
	for _, s := range spawned {
		if len(s.inputs) != 1 {
			t.Fatal("appended entries must survive eviction")
		}
	}
}

func TestDispatch_NestedPassDoesNotEvict(t *testing.T) {
	reg := NewWithDefaults("Input", "Mouse")
	input, _ := reg.Lookup("Input")
	mouse, _ := reg.Lookup("Mouse")

	a := newNode("a", "Input", "Mouse")
	b := newNode("b", "Input", "Mouse")
	reg.Insert(a)
	hb := reg.Insert(b)
	reg.Remove(hb)

	inner := 0
	reg.Dispatch(mouse, func(Handle, any) {
		inner += reg.Dispatch(input, func(_ Handle, impl any) {
			impl.(*node).OnInput('x')
		})
		if reg.IndexLen(input) != 2 {
			t.Fatalf("nested dispatch evicted, len = %d", reg.IndexLen(input))
		}
	})

	if inner != 1 {
		t.Fatalf("nested dispatch called %d slots, want 1", inner)
	}
	if len(b.inputs) != 0 {
		t.Fatal("removed object called by nested dispatch")
	}
	if reg.IndexLen(mouse) != 1 {
		t.Fatalf("outer pass should evict, mouse len = %d", reg.IndexLen(mouse))
	}

	dispatchInput(reg, 'y')
	if reg.IndexLen(input) != 1 {
		t.Fatalf("input len = %d after outer pass", reg.IndexLen(input))
	}
}

func TestDispatch_ClearDuringPass(t *testing.T) {
	reg := NewWithDefaults("Input")
	input, _ := reg.Lookup("Input")
	for i := 0; i < 3; i++ {
		reg.Insert(newNode("n", "Input"))
	}

	n := reg.Dispatch(input, func(Handle, any) {
		reg.Clear()
	})
	if n != 1 {
		t.Fatalf("Dispatch called %d slots after Clear, want 1", n)
	}
	// The entry visited before Clear stays until the next pass evicts it.
	if reg.IndexLen(input) != 1 || reg.Stale(input) != 1 {
		t.Fatalf("index len = %d, stale = %d, want 1 and 1", reg.IndexLen(input), reg.Stale(input))
	}

	if n := reg.Dispatch(input, func(Handle, any) {}); n != 0 {
		t.Fatalf("second pass called %d slots", n)
	}
	if reg.IndexLen(input) != 0 {
		t.Fatalf("index len = %d after second pass", reg.IndexLen(input))
	}
}

// chameleon reports a capability at insertion and loses it later.
type chameleon struct {
	supported bool
}

func (c *chameleon) As(capability string) (any, bool) {
	if !c.supported {
		return nil, false
	}
	return c, true
}

func TestDispatch_ProbeFailureSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	reg := NewWithDefaults("Input")
	input, _ := reg.Lookup("Input")
	c := &chameleon{supported: true}
	reg.Insert(c)
	c.supported = false

	n := reg.Dispatch(input, func(Handle, any) {
		t.Fatal("slot must not run after probe failure")
	})
	if n != 0 {
		t.Fatalf("Dispatch called %d slots", n)
	}
	if reg.IndexLen(input) != 1 {
		t.Fatal("probe failure must not evict")
	}
	if logs.FilterMessage("object no longer supports indexed capability").Len() != 1 {
		t.Fatalf("expected one warning, got %v", logs.All())
	}
}

func TestEvict(t *testing.T) {
	tests := []struct {
		name    string
		members []Handle
		i, n    int
		want    []Handle
	}{
		{"last of full segment", []Handle{1, 2, 3}, 2, 3, []Handle{1, 2}},
		{"first of full segment", []Handle{1, 2, 3}, 0, 3, []Handle{3, 2}},
		{"with appended tail", []Handle{1, 2, 3, 8, 9}, 0, 3, []Handle{3, 2, 9, 8}},
		{"segment end with tail", []Handle{1, 2, 3, 8, 9}, 2, 3, []Handle{1, 2, 9, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evict(append([]Handle(nil), tt.members...), tt.i, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("evict() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("evict() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
