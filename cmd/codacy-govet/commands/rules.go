package commands

import (
	"github.com/codacy/codacy-govet/internal/policy"
	"github.com/codacy/codacy-govet/internal/rules"
	"github.com/codacy/codacy-govet/internal/rules/builtin"
)

func loadCatalog() *rules.Catalog {
	return rules.Load(builtin.Registrations(), rules.LanguageGo)
}

// listedRules returns the rules shown by list-rules.
func listedRules(category string) []*rules.Rule {
	return loadCatalog().Published(policy.DefaultDenyList().Denies, category)
}
