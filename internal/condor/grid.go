package condor

import "fmt"

type gridParam struct {
	name   string
	values []any
}

// Grid is an ordered set of argument names, each with a list of candidate
// values. Its combinations enumerate the cartesian product.
type Grid struct {
	params []gridParam
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{}
}

// Add appends a parameter. Adding a name twice replaces its values in place.
func (g *Grid) Add(name string, values ...any) *Grid {
	for i := range g.params {
		if g.params[i].name == name {
			g.params[i].values = values
			return g
		}
	}
	g.params = append(g.params, gridParam{name: name, values: values})
	return g
}

// Names returns the parameter names in declaration order.
func (g *Grid) Names() []string {
	names := make([]string, len(g.params))
	for i, p := range g.params {
		names[i] = p.name
	}
	return names
}

// Len returns the number of combinations.
func (g *Grid) Len() int {
	if len(g.params) == 0 {
		return 0
	}
	n := 1
	for _, p := range g.params {
		n *= len(p.values)
	}
	return n
}

// Combinations expands the grid into one Args per combination. Parameters
// keep declaration order and the last parameter varies fastest.
func (g *Grid) Combinations() ([]*Args, error) {
	for _, p := range g.params {
		if len(p.values) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyGrid, p.name)
		}
	}
	total := g.Len()
	out := make([]*Args, 0, total)
	idx := make([]int, len(g.params))
	for n := 0; n < total; n++ {
		args := NewArgs()
		for i, p := range g.params {
			args.Set(p.name, p.values[idx[i]])
		}
		out = append(out, args)

		// odometer increment, rightmost first
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(g.params[i].values) {
				break
			}
			idx[i] = 0
		}
	}
	return out, nil
}
