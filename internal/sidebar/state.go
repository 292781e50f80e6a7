package sidebar

import (
	"strconv"

	"github.com/ziadkadry99/guidebook/internal/dom"
	"github.com/ziadkadry99/guidebook/internal/persist"
)

// ToggleZone is the width in pixels, from the left edge of a linked
// chapter's label, that acts as the disclosure arrow.
const ToggleZone = 25.0

const keyExpanded = "expanded"

// ClickAction is what a click on a chapter label resolves to.
type ClickAction int

const (
	// ClickNavigate lets the link navigate.
	ClickNavigate ClickAction = iota
	// ClickToggle flipped the node; link navigation must be suppressed.
	ClickToggle
	// ClickNone had no effect.
	ClickNone
)

// State is the sidebar expansion store. It owns the "sidebar" namespace.
type State struct {
	store persist.Store
}

// NewState returns a store over the sidebar namespace of store.
func NewState(store persist.Store) *State {
	return &State{store: persist.Scope(store, "sidebar")}
}

// Saved returns the persisted expansion map. A corrupt map reads as empty.
func (s *State) Saved() map[string]bool {
	m := map[string]bool{}
	if !persist.ReadJSON(s.store, keyExpanded, &m) || m == nil {
		return map[string]bool{}
	}
	return m
}

// Restore applies persisted expansion to every node with children. A
// persisted collapse is refused for the active node and its ancestors.
func (s *State) Restore(t *Tree) {
	saved := s.Saved()
	active := t.Active()
	for _, n := range t.Nodes() {
		if !n.HasChildren() {
			continue
		}
		expanded, ok := saved[n.ID]
		if !ok {
			continue
		}
		if expanded {
			n.SetExpanded(true)
			continue
		}
		if n == active || n.Contains(active) {
			continue
		}
		n.SetExpanded(false)
	}
}

// Toggle flips n and persists the full map.
func (s *State) Toggle(t *Tree, n *Node) error {
	n.SetExpanded(!n.Expanded())
	return s.save(t)
}

// ExpandActive expands the active node and all its ancestors, regardless of
// persisted state, and persists the result.
func (s *State) ExpandActive(t *Tree) error {
	for n := t.Active(); n != nil; n = n.Parent {
		if n.HasChildren() {
			n.SetExpanded(true)
		}
	}
	return s.save(t)
}

// Reconcile restores persisted state and then re-establishes the expanded
// ancestor chain of the active node. It runs on load and after every splice.
func (s *State) Reconcile(t *Tree) error {
	s.Restore(t)
	return s.ExpandActive(t)
}

// Click resolves a click at offsetX pixels from the left of n's label.
func (s *State) Click(t *Tree, n *Node, offsetX float64) (ClickAction, error) {
	if !n.IsLink() {
		if !n.HasChildren() {
			return ClickNone, nil
		}
		return ClickToggle, s.Toggle(t, n)
	}
	if n.HasChildren() && offsetX >= 0 && offsetX < ToggleZone {
		return ClickToggle, s.Toggle(t, n)
	}
	return ClickNavigate, nil
}

// save recomputes the map from every node's current flag, keeping entries
// for chapters that are not in this tree.
func (s *State) save(t *Tree) error {
	m := s.Saved()
	for _, n := range t.Nodes() {
		if n.HasChildren() {
			m[n.ID] = n.Expanded()
		}
	}
	return persist.WriteJSON(s.store, keyExpanded, m)
}

const keyHidden = "hidden"

// Visibility persists whether the sidebar is hidden. It owns the
// "sidebar-visibility" namespace.
type Visibility struct {
	store persist.Store
}

// NewVisibility returns a visibility store over store.
func NewVisibility(store persist.Store) *Visibility {
	return &Visibility{store: persist.Scope(store, "sidebar-visibility")}
}

// Hidden reports the persisted state, defaulting to visible.
func (v *Visibility) Hidden() bool {
	hidden, ok := persist.ReadBool(v.store, keyHidden)
	return ok && hidden
}

// Apply reflects the persisted state on the book element.
func (v *Visibility) Apply(doc *dom.Document) {
	if v.Hidden() {
		doc.Book().RemoveClass("with-summary")
	} else {
		doc.Book().AddClass("with-summary")
	}
}

// Toggle flips visibility, applies it and persists it.
func (v *Visibility) Toggle(doc *dom.Document) (bool, error) {
	hidden := !v.Hidden()
	if err := v.store.Set(keyHidden, strconv.FormatBool(hidden)); err != nil {
		return v.Hidden(), err
	}
	v.Apply(doc)
	return hidden, nil
}
