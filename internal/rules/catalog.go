// Package rules holds the rule catalog: every analyzer the evaluation
// engine supports, indexed by rule identifier and split into reportable
// and utility rules.
package rules

import (
	"sort"
	"strings"
)

// ToolName is the name the catalog is published under. Run configurations
// select their tool entry by this name.
const ToolName = "govet"

// Catalog is a read-only index of rules for one language.
type Catalog struct {
	all        []*Rule
	byID       map[string]*Rule
	reportable []*Rule
	utility    []*Rule
}

// Load builds a catalog from a registration table, keeping only entries
// that target lang. Entries without an analyzer or without any declared
// language are treated as targeting nothing and skipped. When two entries
// share an identifier the first one wins.
func Load(table []Registration, lang string) *Catalog {
	c := &Catalog{byID: make(map[string]*Rule, len(table))}
	for _, reg := range table {
		if reg.Analyzer == nil || reg.Analyzer.Name == "" || len(reg.Languages) == 0 {
			continue
		}
		r := newRule(reg)
		if !r.Targets(lang) {
			continue
		}
		if _, dup := c.byID[r.ID]; dup {
			continue
		}
		c.byID[r.ID] = r
		c.all = append(c.all, r)
		if r.Utility {
			c.utility = append(c.utility, r)
		} else {
			c.reportable = append(c.reportable, r)
		}
	}
	return c
}

// All returns every rule in registration order.
func (c *Catalog) All() []*Rule { return c.all }

// Reportable returns the user-selectable rules.
func (c *Catalog) Reportable() []*Rule { return c.reportable }

// Utility returns the infrastructure rules that always run.
func (c *Catalog) Utility() []*Rule { return c.utility }

// Lookup returns the rule with the given identifier.
func (c *Catalog) Lookup(id string) (*Rule, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Len returns the number of rules in the catalog.
func (c *Catalog) Len() int { return len(c.all) }

// UtilityIDs returns the set of utility rule identifiers.
func (c *Catalog) UtilityIDs() map[string]bool {
	ids := make(map[string]bool, len(c.utility))
	for _, r := range c.utility {
		ids[r.ID] = true
	}
	return ids
}

// Published returns the reportable rules that are not excluded, sorted by
// identifier. A non-empty category keeps only rules of that category,
// compared case-insensitively.
func (c *Catalog) Published(excluded func(id string) bool, category string) []*Rule {
	var list []*Rule
	for _, r := range c.reportable {
		if excluded != nil && excluded(r.ID) {
			continue
		}
		if category != "" && !strings.EqualFold(string(r.Category), category) {
			continue
		}
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
