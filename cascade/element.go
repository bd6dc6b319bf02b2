package cascade

import (
	"slices"

	"stylekit/common"
	"stylekit/css"
)

// ElementID is an opaque handle of a styled element. The engine never holds
// on to elements, only to their handles.
type ElementID uint64

// Element is what the engine needs to know about a styled element.
type Element interface {
	ID() ElementID
	// Type is the declared type name.
	Type() string
	// IsKindOf reports whether the element type is typ or descends from it.
	IsKindOf(typ string) bool
	HasTrait(trait string) bool
	// Scopes lists names of enclosing scopes, innermost first.
	Scopes() []string
	// Bounds is used as resolution basis of immediate properties.
	Bounds() common.Size
}

// Matches reports whether sel selects el. Selector condition is not checked.
func Matches(sel css.Selector, el Element) bool {
	switch sel.Kind {
	case css.TraitMatch:
		return el.HasTrait(sel.Trait)
	case css.ScopeMatch:
		if !slices.Contains(el.Scopes(), sel.Scope) {
			return false
		}
		if sel.Type != "" && !matchesType(sel, el) {
			return false
		}
		return sel.Trait == "" || el.HasTrait(sel.Trait)
	default:
		if !matchesType(sel, el) {
			return false
		}
		return sel.Trait == "" || el.HasTrait(sel.Trait)
	}
}

func matchesType(sel css.Selector, el Element) bool {
	if el.Type() == sel.Type {
		return true
	}
	return sel.AppliesToSubclasses && el.IsKindOf(sel.Type)
}

// Node is a plain Element implementation for callers which do not have an
// element model of their own, the command line tool among them.
type Node struct {
	Handle  ElementID
	Name    string
	Parents []string // ancestor types, nearest first
	Traits  []string
	Within  []string
	Size    common.Size
}

func (n *Node) ID() ElementID { return n.Handle }
func (n *Node) Type() string { return n.Name }
func (n *Node) HasTrait(trait string) bool { return slices.Contains(n.Traits, trait) }
func (n *Node) Scopes() []string { return n.Within }
func (n *Node) Bounds() common.Size { return n.Size }
func (n *Node) IsKindOf(typ string) bool { return n.Name == typ || slices.Contains(n.Parents, typ) }
