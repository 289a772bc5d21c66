package store

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rebanho/ledger/internal/config"
)

//go:embed weaning_rules.yaml
var defaultWeaningRules embed.FS

// WeaningRulesPathEnvVar overrides the embedded default weaning rule table.
const WeaningRulesPathEnvVar = "WEANING_RULES_PATH"

// WeaningRule is one source-slug → target-slug promotion.
type WeaningRule struct {
	SourceSlug string `yaml:"source_slug"`
	TargetSlug string `yaml:"target_slug"`
}

// WeaningRules is the fixed rule table governing ExecuteWeaning: which
// system category a male calf and a female calf promote into.
type WeaningRules struct {
	Male   WeaningRule `yaml:"male"`
	Female WeaningRule `yaml:"female"`
}

// LoadWeaningRules loads the rule table from WEANING_RULES_PATH if set,
// otherwise from the embedded default (bezerro-macho → bois-2a,
// bezerro-femea → novilha-2a).
func LoadWeaningRules() (*WeaningRules, error) {
	path := config.GetEnvStr(WeaningRulesPathEnvVar, "")

	var (
		data []byte
		err  error
	)

	if path != "" {
		data, err = os.ReadFile(path) //nolint:gosec // path is from trusted operator configuration
		if err != nil {
			return nil, fmt.Errorf("failed to read weaning rules from %s: %w", path, err)
		}
	} else {
		data, err = defaultWeaningRules.ReadFile("weaning_rules.yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded weaning rules: %w", err)
		}
	}

	var rules WeaningRules

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse weaning rules: %w", err)
	}

	return &rules, nil
}
