package cascade

import (
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"stylekit/css"
	"stylekit/resolve"
)

// ComputedStyle is the cascaded result for one element. It is shared between
// callers through the cache and must not be modified.
type ComputedStyle struct {
	Generation Generation
	// Immediate holds resolved values of regular properties.
	Immediate map[string]resolve.Value
	// Deferred holds layout time properties, see Engine.ResolveDeferred.
	Deferred map[string]css.PropertyValue
	// Dropped records properties which matched but could not be resolved.
	Dropped map[string]error
}

func newComputedStyle(gen Generation) *ComputedStyle {
	return &ComputedStyle{
		Generation: gen,
		Immediate:  make(map[string]resolve.Value),
		Deferred:   make(map[string]css.PropertyValue),
		Dropped:    make(map[string]error),
	}
}

// Empty reports whether no property matched.
func (cs *ComputedStyle) Empty() bool {
	return len(cs.Immediate) == 0 && len(cs.Deferred) == 0 && len(cs.Dropped) == 0
}

// Keys returns names of all immediate and deferred properties in natural order.
func (cs *ComputedStyle) Keys() []string {
	keys := slices.Collect(maps.Keys(cs.Immediate))
	keys = slices.AppendSeq(keys, maps.Keys(cs.Deferred))
	sort.Sort(natural.StringSlice(keys))
	return keys
}
