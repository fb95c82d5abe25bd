package registry

import (
	"fmt"

	"go.uber.org/zap"
)

// Dispatch calls fn with the capability value of every resident object in
// the index of c and returns the number of calls made.
//
// The walk covers the entries present when the pass starts. Entries whose
// handle no longer resolves are swap-removed from the index on the spot, so
// visit order is not stable across dispatches. Objects that fail the
// capability probe are logged and skipped but stay indexed.
//
// fn may insert and remove objects. Only the outermost dispatch evicts; a
// dispatch started from inside fn skips stale entries without touching the
// index. It panics if c was not declared.
func (r *Registry) Dispatch(c Capability, fn func(Handle, any)) int {
	if c < 0 || int(c) >= len(r.indices) {
		panic(fmt.Sprintf("registry: dispatch on undeclared capability %d", c))
	}

	idx := &r.indices[c]
	r.depth++
	defer func() { r.depth-- }()
	outer := r.depth == 1

	n := len(idx.members)
	called := 0
	evicted := 0
	for i := 0; i < n && i < len(idx.members); {
		h := idx.members[i]
		pos, ok := r.position(h)
		if !ok {
			if outer {
				idx.members = evict(idx.members, i, n)
				n--
				evicted++
				r.notify(Event{Type: EventEvicted, Handle: h, Capability: idx.name})
			} else {
				i++
			}
			continue
		}

		impl, ok := r.objects[pos].As(idx.name)
		if !ok {
			Logger().Warn("object no longer supports indexed capability",
				zap.Uint64("handle", uint64(h)),
				zap.String("capability", idx.name),
			)
			i++
			continue
		}

		fn(h, impl)
		called++
		i++
	}

	if evicted > 0 {
		Logger().Debug("evicted stale index entries",
			zap.String("capability", idx.name),
			zap.Int("evicted", evicted),
			zap.Int("remaining", len(idx.members)),
		)
	}
	return called
}

// DispatchName is Dispatch addressed by capability name.
// It returns false if no capability of that name was declared.
func (r *Registry) DispatchName(name string, fn func(Handle, any)) (int, bool) {
	c, ok := r.Lookup(name)
	if !ok {
		return 0, false
	}
	return r.Dispatch(c, fn), true
}

// evict drops members[i] from the segment [0, n) that the running pass
// walks. Entries at n and beyond were appended during the pass; they remain
// outside the shrunken segment.
func evict(members []Handle, i, n int) []Handle {
	last := len(members) - 1
	members[i] = members[n-1]
	if n-1 != last {
		members[n-1] = members[last]
	}
	return members[:last]
}
