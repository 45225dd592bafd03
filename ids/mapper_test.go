package ids

import (
	"strings"
	"testing"

	"github.com/plasmakit/imascompose/config"
)

func TestBuildRegistry(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	r, err := BuildRegistry(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paths := r.Paths()
	for _, want := range []string{
		"ece.channel.t_e.data",
		"equilibrium.time",
		"core_profiles.global_quantities.v_loop",
	} {
		found := false
		for _, p := range paths {
			if p == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %q among composable paths", want)
		}
	}

	// Internal plumbing never appears as a composable path.
	for _, p := range paths {
		if strings.Contains(p, "._") {
			t.Fatalf("internal spec %q leaked into composable paths", p)
		}
	}
}

func TestMappers_FieldLedgers(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	mappers, err := Mappers(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mappers) != 3 {
		t.Fatalf("expected 3 mappers, got %d", len(mappers))
	}
	for _, m := range mappers {
		if m.IDS() == "" {
			t.Fatal("expected non-empty IDS name")
		}
		if len(m.Fields()) == 0 {
			t.Fatalf("expected non-empty field ledger for %s", m.IDS())
		}
	}
}
