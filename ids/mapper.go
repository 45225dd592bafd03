package ids

import (
	"github.com/plasmakit/imascompose/composer"
	"github.com/plasmakit/imascompose/config"
)

// Mapper registers one IDS's entry specs into a registry builder.
type Mapper interface {
	// IDS returns the IDS name the mapper provides (e.g., "ece").
	IDS() string
	// Fields returns the public output paths, relative to the IDS root.
	Fields() []string
	// Register adds the mapper's specs to the builder.
	Register(b *composer.Builder) error
}

// Mappers instantiates the IDS mappers parameterized by the configuration.
func Mappers(cfg *config.Config) ([]Mapper, error) {
	ece, err := NewECEMapper(cfg.FastECE)
	if err != nil {
		return nil, err
	}
	eq, err := NewEquilibriumMapper(cfg.EFITTree)
	if err != nil {
		return nil, err
	}
	cp, err := NewCoreProfilesMapper(cfg.ProfilesTree)
	if err != nil {
		return nil, err
	}
	return []Mapper{ece, eq, cp}, nil
}

// BuildRegistry assembles all configured mappers into one frozen registry.
func BuildRegistry(cfg *config.Config) (*composer.Registry, error) {
	mappers, err := Mappers(cfg)
	if err != nil {
		return nil, err
	}
	b := composer.NewBuilder()
	for _, m := range mappers {
		if err := m.Register(b); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
