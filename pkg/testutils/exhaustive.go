package testutils

import "github.com/argus-labs/forge/pkg/assert"

const maxGenDepth = 32

// Gen enumerates every combination of the bounded choices a test body makes, one combination per
// iteration of `for !g.Done() { ... }`. The choice sequence is treated as a mixed-radix counter:
// each Done call bumps the rightmost choice that is still below its bound and zeroes the rest.
//
// See: <https://matklad.github.io/2021/11/07/generate-all-the-things.html>
type Gen struct {
	started bool
	choices [maxGenDepth]struct{ value, bound uint32 }
	pos     int
	depth   int
}

// NewGen creates a generator positioned before the first combination.
func NewGen() *Gen {
	return &Gen{}
}

// Done advances to the next combination and reports whether all of them have been produced.
func (g *Gen) Done() bool {
	if !g.started {
		g.started = true
		return false
	}
	for i := g.depth - 1; i >= 0; i-- {
		if g.choices[i].value < g.choices[i].bound {
			g.choices[i].value++
			g.depth = i + 1
			g.pos = 0
			return false
		}
	}
	return true
}

// Intn returns a value in [0, bound], inclusive.
func (g *Gen) Intn(bound int) int {
	assert.That(g.pos < maxGenDepth, "exhaustive generator deeper than %d choices", maxGenDepth)
	if g.pos == g.depth {
		g.choices[g.pos].value = 0
		g.depth++
	}
	g.choices[g.pos].bound = uint32(bound) //nolint:gosec // bounds are small in tests
	g.pos++
	return int(g.choices[g.pos-1].value)
}

// Bool returns both false and true across iterations.
func (g *Gen) Bool() bool {
	return g.Intn(1) == 1
}
