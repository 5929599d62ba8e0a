// Package policy decides which findings reach the output: the engine-wide
// enable gate computed from the rule selection, and the emission gate that
// additionally enforces the deny-list.
package policy

import (
	"slices"

	"github.com/codacy/codacy-govet/internal/rules"
)

// DenyList is a set of rule identifiers never reported by this integration.
type DenyList map[string]bool

// DefaultDenyList holds rules that need inputs a single-file unit does not
// carry: sibling build-constrained files, cgo preprocessing and assembly.
func DefaultDenyList() DenyList {
	return NewDenyList("asmdecl", "buildtag", "cgocall")
}

// NewDenyList builds a deny-list from identifiers.
func NewDenyList(ids ...string) DenyList {
	d := make(DenyList, len(ids))
	for _, id := range ids {
		d[id] = true
	}
	return d
}

// Denies reports whether id is deny-listed.
func (d DenyList) Denies(id string) bool { return d[id] }

// Selection is the set of reportable rules a run is restricted to.
// A nil *Selection means no restriction.
type Selection struct {
	ids   map[string]struct{}
	order []string
}

// NewSelection builds a selection from ids, dropping deny-listed ones and
// duplicates. The result is never nil, even when empty.
func NewSelection(ids []string, deny DenyList) *Selection {
	s := &Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if deny.Denies(id) {
			continue
		}
		if _, ok := s.ids[id]; ok {
			continue
		}
		s.ids[id] = struct{}{}
		s.order = append(s.order, id)
	}
	return s
}

// Absent reports whether the selection places no restriction.
func (s *Selection) Absent() bool { return s == nil }

// Contains reports whether id is explicitly selected.
func (s *Selection) Contains(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected identifiers in configuration order.
func (s *Selection) IDs() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.order)
}

// Len returns the number of selected identifiers.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Action is the engine-wide treatment of a rule's diagnostics.
type Action int

const (
	Suppress Action = iota
	Warn
)

func (a Action) String() string {
	if a == Warn {
		return "warn"
	}
	return "suppress"
}

// Gate maps rule identifiers to the engine-wide action.
type Gate map[string]Action

// Enabled reports whether id is set to Warn.
func (g Gate) Enabled(id string) bool { return g[id] == Warn }

// Policy combines the selection, the utility rule set and the deny-list.
type Policy struct {
	Selection *Selection
	Utility   map[string]bool
	Deny      DenyList
}

// New returns the policy for a run over catalog.
func New(catalog *rules.Catalog, sel *Selection, deny DenyList) *Policy {
	return &Policy{Selection: sel, Utility: catalog.UtilityIDs(), Deny: deny}
}

// Selected is the first gate: a rule is engine-enabled when there is no
// selection, when it is selected, or when it is a utility rule.
func (p *Policy) Selected(id string) bool {
	return p.Selection.Absent() || p.Selection.Contains(id) || p.Utility[id]
}

// ShouldReport is the emission gate. It re-checks the deny-list so a
// utility rule that is engine-enabled is still withheld when denied.
func (p *Policy) ShouldReport(id string) bool {
	return !p.Deny.Denies(id) && p.Selected(id)
}

// Gate computes the engine-wide action for every rule in the catalog.
func (p *Policy) Gate(catalog *rules.Catalog) Gate {
	g := make(Gate, catalog.Len())
	for _, r := range catalog.All() {
		if p.Selected(r.ID) {
			g[r.ID] = Warn
		} else {
			g[r.ID] = Suppress
		}
	}
	return g
}

// ActiveRules returns the rules to hand to the engine: the active
// reportable rules that are not deny-listed, followed by every utility rule.
func (p *Policy) ActiveRules(catalog *rules.Catalog) []*rules.Rule {
	var active []*rules.Rule
	for _, r := range catalog.Reportable() {
		if p.Selected(r.ID) && !p.Deny.Denies(r.ID) {
			active = append(active, r)
		}
	}
	return append(active, catalog.Utility()...)
}
