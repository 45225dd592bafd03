package ids

import (
	"fmt"

	"github.com/plasmakit/imascompose/composer"
)

// Fitted-profile node paths under the ZIPFIT tree.
var profileNodes = map[string]string{
	"density":         `\TOP.PROFILES.EDENSFIT`,
	"temperature":     `\TOP.PROFILES.ETEMPFIT`,
	"ion_temperature": `\TOP.PROFILES.ITEMPFIT`,
	"carbon_density":  `\TOP.PROFILES.ZDENSFIT`,
	"carbon_rotation": `\TOP.PROFILES.TROTFIT`,
}

// profileSignals fixes the iteration order over the fitted profiles; the
// unified time base and rho grid are built from all of them.
var profileSignals = []string{
	"density",
	"temperature",
	"ion_temperature",
	"carbon_density",
	"carbon_rotation",
}

// ZIPFIT stores densities in 1e19 m^-3 and temperatures/rotation in keV and
// krad/s; outputs are SI.
const (
	densityFactor     = 1e19
	temperatureFactor = 1e3
	rotationFactor    = 1e3
)

// CoreProfilesMapper maps ZIPFIT fitted profiles to the core_profiles IDS.
// All profiles are resampled onto a unified time base and a common
// normalized-rho grid.
type CoreProfilesMapper struct {
	profilesTree string
	static       map[string]float64
	fields       []string
}

// NewCoreProfilesMapper creates a mapper over the given ZIPFIT tree.
func NewCoreProfilesMapper(profilesTree string) (*CoreProfilesMapper, error) {
	tbl, err := loadTable(coreProfilesTable)
	if err != nil {
		return nil, fmt.Errorf("core_profiles table: %w", err)
	}
	return &CoreProfilesMapper{
		profilesTree: profilesTree,
		static:       tbl.StaticValues,
		fields:       tbl.Fields,
	}, nil
}

// IDS returns the IDS name this mapper provides.
func (m *CoreProfilesMapper) IDS() string { return "core_profiles" }

// Fields returns the public output paths, relative to the IDS root.
func (m *CoreProfilesMapper) Fields() []string { return m.fields }

// Register adds the core_profiles specs to the builder.
func (m *CoreProfilesMapper) Register(b *composer.Builder) error {
	type entry struct {
		name string
		spec composer.EntrySpec
	}

	var specs []entry
	for _, signal := range profileSignals {
		specs = append(specs,
			entry{internalName(signal, "data"), composer.Direct(m.dataReq(signal, 0))},
			entry{internalName(signal, "time"), composer.Direct(m.dimReq(signal, 1, 0))},
			entry{internalName(signal, "rho"), composer.Direct(m.dimReq(signal, 0, 0))},
		)
	}

	var dimDeps, timeDeps []string
	for _, signal := range profileSignals {
		dimDeps = append(dimDeps, internalName(signal, "time"), internalName(signal, "rho"))
		timeDeps = append(timeDeps, internalName(signal, "time"))
	}
	profileDeps := func(signal string) []string {
		return append([]string{internalName(signal, "data")}, dimDeps...)
	}

	specs = append(specs,
		entry{"core_profiles._vloop_data", composer.Derived(nil, deriveVLoopData)},
		entry{"core_profiles._vloop_time", composer.Derived(nil, deriveVLoopTime)},

		entry{"core_profiles.profiles_1d.grid.rho_tor_norm", composer.Computed(dimDeps, m.composeRhoTorNorm)},
		entry{"core_profiles.profiles_1d.electrons.density_thermal", composer.Computed(profileDeps("density"), m.composeProfile("density", densityFactor))},
		entry{"core_profiles.profiles_1d.electrons.temperature", composer.Computed(profileDeps("temperature"), m.composeProfile("temperature", temperatureFactor))},

		entry{"core_profiles.profiles_1d.ion.0.temperature", composer.Computed(profileDeps("ion_temperature"), m.composeProfile("ion_temperature", temperatureFactor))},
		entry{"core_profiles.profiles_1d.ion.0.density_thermal", composer.Computed([]string{
			"core_profiles.profiles_1d.electrons.density_thermal",
			"core_profiles.profiles_1d.ion.1.density_thermal",
		}, m.composeDeuteriumDensity)},
		entry{"core_profiles.profiles_1d.ion.0.label", composer.Computed(nil, constString("D"))},
		entry{"core_profiles.profiles_1d.ion.0.element.0.z_n", composer.Computed(nil, constScalar(1))},
		entry{"core_profiles.profiles_1d.ion.0.element.0.a", composer.Computed(nil, constScalar(2.0141))},

		entry{"core_profiles.profiles_1d.ion.1.density_thermal", composer.Computed(profileDeps("carbon_density"), m.composeProfile("carbon_density", densityFactor))},
		entry{"core_profiles.profiles_1d.ion.1.temperature", composer.Computed(profileDeps("ion_temperature"), m.composeProfile("ion_temperature", temperatureFactor))},
		entry{"core_profiles.profiles_1d.ion.1.rotation_frequency_tor", composer.Computed(profileDeps("carbon_rotation"), m.composeProfile("carbon_rotation", rotationFactor))},
		entry{"core_profiles.profiles_1d.ion.1.label", composer.Computed(nil, constString("C"))},
		entry{"core_profiles.profiles_1d.ion.1.element.0.z_n", composer.Computed(nil, constScalar(6))},
		entry{"core_profiles.profiles_1d.ion.1.element.0.a", composer.Computed(nil, constScalar(12.011))},

		entry{"core_profiles.time", composer.Computed(timeDeps, m.composeTime)},
		entry{"core_profiles.profiles_1d.time", composer.Computed([]string{"core_profiles.time"}, m.composeTime)},
		entry{"core_profiles.ids_properties.homogeneous_time", composer.Computed(nil, staticCompose(m.static, "core_profiles", "ids_properties.homogeneous_time"))},
		entry{"core_profiles.global_quantities.v_loop", composer.Computed([]string{
			"core_profiles._vloop_data",
			"core_profiles._vloop_time",
			"core_profiles.time",
		}, m.composeVLoop)},
	)

	for _, s := range specs {
		if err := b.Register(s.name, s.spec); err != nil {
			return err
		}
	}
	return nil
}

func internalName(signal, part string) string {
	return fmt.Sprintf("core_profiles.profiles_1d._%s_%s", signal, part)
}

func (m *CoreProfilesMapper) dataReq(signal string, shot int) composer.Requirement {
	return composer.NewRequirement(profileNodes[signal], shot, m.profilesTree)
}

// dimReq addresses one dimension of a fitted profile: dim 1 is time, dim 0
// is rho.
func (m *CoreProfilesMapper) dimReq(signal string, dim, shot int) composer.Requirement {
	return composer.NewRequirement(fmt.Sprintf("dim_of(%s,%d)", profileNodes[signal], dim), shot, m.profilesTree)
}

// VLOOP lives in point data, not a tree, so the shot number is embedded in
// the TDI expression itself and the requirement can only be formed per shot.
func deriveVLoopData(shot int, _ composer.Cache) ([]composer.Requirement, error) {
	return []composer.Requirement{vloopDataReq(shot)}, nil
}

func deriveVLoopTime(shot int, _ composer.Cache) ([]composer.Requirement, error) {
	return []composer.Requirement{vloopTimeReq(shot)}, nil
}

func vloopDataReq(shot int) composer.Requirement {
	return composer.NewRequirement(fmt.Sprintf(`ptdata2("VLOOP",%d)`, shot), shot, "")
}

func vloopTimeReq(shot int) composer.Requirement {
	return composer.NewRequirement(fmt.Sprintf(`dim_of(ptdata2("VLOOP",%d),0)`, shot), shot, "")
}

// signalTime returns one profile's native time base converted from ms to s.
func (m *CoreProfilesMapper) signalTime(shot int, cache composer.Cache, signal string) ([]float64, error) {
	t, err := cache.Vector(m.dimReq(signal, 1, shot))
	if err != nil {
		return nil, err
	}
	return scale(t, 1e-3), nil
}

// unifiedTime merges the native time bases of all fitted profiles into one
// ascending array of distinct time points.
func (m *CoreProfilesMapper) unifiedTime(shot int, cache composer.Cache) ([]float64, error) {
	var all []float64
	for _, signal := range profileSignals {
		t, err := m.signalTime(shot, cache, signal)
		if err != nil {
			return nil, err
		}
		all = append(all, t...)
	}
	return uniqueSorted(all), nil
}

// rhoGrid merges the native rho grids of all fitted profiles (plus the edge
// point 1.0) and clips to the normalized range.
func (m *CoreProfilesMapper) rhoGrid(shot int, cache composer.Cache) ([]float64, error) {
	all := []float64{1.0}
	for _, signal := range profileSignals {
		rho, err := cache.Vector(m.dimReq(signal, 0, shot))
		if err != nil {
			return nil, err
		}
		all = append(all, rho...)
	}
	grid := uniqueSorted(all)
	out := grid[:0]
	for _, v := range grid {
		if v <= 1.0 {
			out = append(out, v)
		}
	}
	return out, nil
}

// composeRhoTorNorm broadcasts the common rho grid across the unified time
// base, (n_time, n_rho).
func (m *CoreProfilesMapper) composeRhoTorNorm(shot int, cache composer.Cache) (composer.Value, error) {
	grid, err := m.rhoGrid(shot, cache)
	if err != nil {
		return composer.Value{}, err
	}
	times, err := m.unifiedTime(shot, cache)
	if err != nil {
		return composer.Value{}, err
	}
	return composer.Matrix(len(times), len(grid), tileRows(grid, len(times))), nil
}

// composeProfile resamples one fitted profile onto the unified time base and
// the common rho grid: nearest native time slice, linear in rho, NaN outside
// the signal's native rho range.
func (m *CoreProfilesMapper) composeProfile(signal string, factor float64) composer.ComposeFunc {
	return func(shot int, cache composer.Cache) (composer.Value, error) {
		return m.resample(shot, cache, signal, factor)
	}
}

func (m *CoreProfilesMapper) resample(shot int, cache composer.Cache, signal string, factor float64) (composer.Value, error) {
	raw, err := cache.Get(m.dataReq(signal, shot))
	if err != nil {
		return composer.Value{}, err
	}
	data, err := dense2D(raw)
	if err != nil {
		return composer.Value{}, err
	}
	sigTime, err := m.signalTime(shot, cache, signal)
	if err != nil {
		return composer.Value{}, err
	}
	sigRho, err := cache.Vector(m.dimReq(signal, 0, shot))
	if err != nil {
		return composer.Value{}, err
	}
	if data.Shape[0] != len(sigTime) || data.Shape[1] != len(sigRho) {
		return composer.Value{}, fmt.Errorf("%s data is %dx%d, dims are %dx%d",
			signal, data.Shape[0], data.Shape[1], len(sigTime), len(sigRho))
	}

	times, err := m.unifiedTime(shot, cache)
	if err != nil {
		return composer.Value{}, err
	}
	grid, err := m.rhoGrid(shot, cache)
	if err != nil {
		return composer.Value{}, err
	}

	out := make([]float64, 0, len(times)*len(grid))
	for _, t0 := range times {
		row := scale(data.Row(nearestIndex(sigTime, t0)), factor)
		out = append(out, interpLinear(sigRho, row, grid)...)
	}
	return composer.Matrix(len(times), len(grid), out), nil
}

// composeDeuteriumDensity applies quasineutrality: n_D = n_e - 6*n_C.
func (m *CoreProfilesMapper) composeDeuteriumDensity(shot int, cache composer.Cache) (composer.Value, error) {
	nev, err := m.resample(shot, cache, "density", densityFactor)
	if err != nil {
		return composer.Value{}, err
	}
	ncv, err := m.resample(shot, cache, "carbon_density", densityFactor)
	if err != nil {
		return composer.Value{}, err
	}
	ne, err := nev.Dense()
	if err != nil {
		return composer.Value{}, err
	}
	nc, err := ncv.Dense()
	if err != nil {
		return composer.Value{}, err
	}
	out := make([]float64, len(ne.Data))
	for i := range out {
		out[i] = ne.Data[i] - 6.0*nc.Data[i]
	}
	return composer.Matrix(ne.Shape[0], ne.Shape[1], out), nil
}

func (m *CoreProfilesMapper) composeTime(shot int, cache composer.Cache) (composer.Value, error) {
	times, err := m.unifiedTime(shot, cache)
	if err != nil {
		return composer.Value{}, err
	}
	return composer.Vector(times), nil
}

// composeVLoop interpolates the measured loop voltage onto the unified
// profile time base.
func (m *CoreProfilesMapper) composeVLoop(shot int, cache composer.Cache) (composer.Value, error) {
	data, err := cache.Vector(vloopDataReq(shot))
	if err != nil {
		return composer.Value{}, err
	}
	tms, err := cache.Vector(vloopTimeReq(shot))
	if err != nil {
		return composer.Value{}, err
	}
	if len(data) != len(tms) {
		return composer.Value{}, fmt.Errorf("VLOOP has %d samples but %d time points", len(data), len(tms))
	}
	times, err := m.unifiedTime(shot, cache)
	if err != nil {
		return composer.Value{}, err
	}
	return composer.Vector(interpLinear(scale(tms, 1e-3), data, times)), nil
}
