package coverage

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed ontology.yaml
var ontologyYAML []byte

// OntologyEntry is one insurer-independent coverage concept with the raw
// names it is written under.
type OntologyEntry struct {
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// ontologyAlias pairs one alias string with its owning entry, for
// longest-alias-first scanning.
type ontologyAlias struct {
	alias string
	entry OntologyEntry
}

// loadOntology parses the embedded ontology and returns its aliases sorted
// longest first, so 유사암진단비 wins over 암진단비 when both occur.
func loadOntology() ([]ontologyAlias, error) {
	var entries []OntologyEntry
	if err := yaml.Unmarshal(ontologyYAML, &entries); err != nil {
		return nil, eris.Wrap(err, "coverage: parse ontology")
	}

	var aliases []ontologyAlias
	for _, e := range entries {
		for _, a := range e.Aliases {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			aliases = append(aliases, ontologyAlias{alias: a, entry: e})
		}
	}

	sort.SliceStable(aliases, func(i, j int) bool {
		return len([]rune(aliases[i].alias)) > len([]rune(aliases[j].alias))
	})
	return aliases, nil
}
