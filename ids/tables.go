package ids

import (
	_ "embed"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/plasmakit/imascompose/composer"
)

//go:embed ece.yaml
var eceTable []byte

//go:embed equilibrium.yaml
var equilibriumTable []byte

//go:embed core_profiles.yaml
var coreProfilesTable []byte

// table is one embedded per-IDS configuration: static output values keyed by
// field path, and the ledger of public fields the mapper provides.
type table struct {
	StaticValues map[string]float64 `yaml:"static_values"`
	Fields       []string           `yaml:"fields"`
}

func loadTable(raw []byte) (table, error) {
	var t table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return table{}, err
	}
	return t, nil
}

// staticCompose returns a ComposeFunc serving one value from an embedded
// static-value table.
func staticCompose(static map[string]float64, ids, key string) composer.ComposeFunc {
	return func(int, composer.Cache) (composer.Value, error) {
		v, ok := static[key]
		if !ok {
			return composer.Value{}, fmt.Errorf("static value %q not in %s table", key, ids)
		}
		return composer.Scalar(v), nil
	}
}

func constScalar(v float64) composer.ComposeFunc {
	return func(int, composer.Cache) (composer.Value, error) {
		return composer.Scalar(v), nil
	}
}

func constString(s string) composer.ComposeFunc {
	return func(int, composer.Cache) (composer.Value, error) {
		return composer.String(s), nil
	}
}
