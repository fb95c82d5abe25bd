package registry

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// model mirrors the registry contents with plain maps.
type model struct {
	live    map[Handle]*node
	removed map[Handle]bool
}

func (m *model) check(t *testing.T, reg *Registry) {
	t.Helper()

	require.Equal(t, len(m.live), reg.Len(), "dense store length")

	for h, want := range m.live {
		got, ok := reg.Get(h)
		require.True(t, ok, "live handle %d must resolve", h)
		require.Same(t, want, got)
	}
	for h := range m.removed {
		_, ok := reg.Get(h)
		require.False(t, ok, "removed handle %d must not resolve", h)
	}

	seen := make(map[Handle]int, len(m.live))
	for h, obj := range reg.All() {
		seen[h]++
		require.Same(t, m.live[h], obj)
	}
	require.Len(t, seen, len(m.live))
	for h, n := range seen {
		require.Equal(t, 1, n, "handle %d visited %d times", h, n)
	}
}

func TestRegistry_RandomizedAgainstModel(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7919))
		reg := NewWithDefaults("Input", "Mouse")
		m := &model{live: map[Handle]*node{}, removed: map[Handle]bool{}}

		for step := 0; step < 300; step++ {
			switch op := rng.IntN(10); {
			case op < 5:
				var caps []string
				if rng.IntN(2) == 0 {
					caps = append(caps, "Input")
				}
				if rng.IntN(3) == 0 {
					caps = append(caps, "Mouse")
				}
				n := newNode("n", caps...)
				h := reg.Insert(n)
				require.False(t, m.removed[h], "handle reused")
				_, dup := m.live[h]
				require.False(t, dup, "handle reused")
				m.live[h] = n

			case op < 8:
				if len(m.live) == 0 {
					continue
				}
				h := pick(rng, m.live)
				obj, ok := reg.Remove(h)
				require.True(t, ok)
				require.Same(t, m.live[h], obj)
				delete(m.live, h)
				m.removed[h] = true

			case op < 9:
				// Invalid handles never mutate state.
				h := Handle(rng.Uint64N(uint64(reg.Issued()) + 5))
				if _, ok := m.live[h]; ok {
					continue
				}
				_, ok := reg.Remove(h)
				require.False(t, ok)

			default:
				calls := map[*node]int{}
				input, _ := reg.Lookup("Input")
				n := reg.Dispatch(input, func(_ Handle, impl any) {
					calls[impl.(*node)]++
				})

				want := 0
				for _, nd := range m.live {
					if nd.caps["Input"] {
						want++
						assert.Equal(t, 1, calls[nd])
					} else {
						assert.Zero(t, calls[nd])
					}
				}
				require.Equal(t, want, n)
				require.Equal(t, want, reg.IndexLen(input), "stale entries evicted")
			}

			m.check(t, reg)
		}
	}
}

func pick(rng *rand.Rand, live map[Handle]*node) Handle {
	i := rng.IntN(len(live))
	for h := range live {
		if i == 0 {
			return h
		}
		i--
	}
	panic("unreachable")
}

func TestRegistry_RoundTrip(t *testing.T) {
	reg := NewWithDefaults("Input")
	for i := 0; i < 10; i++ {
		n := newNode("n", "Input")
		n.inputs = []rune{'a', 'b'}
		got, ok := reg.Remove(reg.Insert(n))
		require.True(t, ok)
		require.Same(t, n, got)
		assert.Equal(t, []rune{'a', 'b'}, got.(*node).inputs)
		assert.True(t, got.(*node).caps["Input"])
	}
	assert.Zero(t, reg.Len())
}
