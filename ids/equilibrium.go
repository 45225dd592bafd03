package ids

import (
	"fmt"

	"github.com/plasmakit/imascompose/composer"
)

// EquilibriumMapper maps EFIT reconstruction results to the equilibrium IDS.
// The tree name (EFIT01, EFIT02, ...) selects which reconstruction run the
// mapper reads.
type EquilibriumMapper struct {
	efitTree   string
	geqdskNode string
	aeqdskNode string
	static     map[string]float64
	fields     []string
}

// NewEquilibriumMapper creates a mapper over the given EFIT tree.
func NewEquilibriumMapper(efitTree string) (*EquilibriumMapper, error) {
	tbl, err := loadTable(equilibriumTable)
	if err != nil {
		return nil, fmt.Errorf("equilibrium table: %w", err)
	}
	return &EquilibriumMapper{
		efitTree:   efitTree,
		geqdskNode: fmt.Sprintf(`\%s::TOP.RESULTS.GEQDSK`, efitTree),
		aeqdskNode: fmt.Sprintf(`\%s::TOP.RESULTS.AEQDSK`, efitTree),
		static:     tbl.StaticValues,
		fields:     tbl.Fields,
	}, nil
}

// IDS returns the IDS name this mapper provides.
func (m *EquilibriumMapper) IDS() string { return "equilibrium" }

// Fields returns the public output paths, relative to the IDS root.
func (m *EquilibriumMapper) Fields() []string { return m.fields }

// Register adds the equilibrium specs to the builder.
func (m *EquilibriumMapper) Register(b *composer.Builder) error {
	specs := []struct {
		name string
		spec composer.EntrySpec
	}{
		{"equilibrium._gtime", composer.Direct(m.geqdsk("GTIME", 0))},
		{"equilibrium._rbbbs", composer.Direct(m.geqdsk("RBBBS", 0))},
		{"equilibrium._zbbbs", composer.Direct(m.geqdsk("ZBBBS", 0))},
		{"equilibrium._rxpt1", composer.Direct(m.aeqdsk("RXPT1", 0))},
		{"equilibrium._zxpt1", composer.Direct(m.aeqdsk("ZXPT1", 0))},
		{"equilibrium._rxpt2", composer.Direct(m.aeqdsk("RXPT2", 0))},
		{"equilibrium._zxpt2", composer.Direct(m.aeqdsk("ZXPT2", 0))},

		{"equilibrium.code.name", composer.Computed(nil, m.composeCodeName)},
		{"equilibrium.code.version", composer.Computed(nil, m.composeCodeName)},
		{"equilibrium.ids_properties.homogeneous_time", composer.Computed(nil, staticCompose(m.static, "equilibrium", "ids_properties.homogeneous_time"))},
		{"equilibrium.time", composer.Computed([]string{"equilibrium._gtime"}, m.composeTime)},
		{"equilibrium.time_slice.time", composer.Computed([]string{"equilibrium._gtime"}, m.composeTime)},
		{"equilibrium.time_slice.boundary.outline.r", composer.Computed([]string{"equilibrium._rbbbs"}, m.composeOutlineR)},
		{"equilibrium.time_slice.boundary.outline.z", composer.Computed([]string{"equilibrium._rbbbs", "equilibrium._zbbbs"}, m.composeOutlineZ)},
		{"equilibrium.time_slice.boundary.x_point.r", composer.Computed([]string{"equilibrium._rxpt1", "equilibrium._rxpt2"}, m.composeXPointR)},
		{"equilibrium.time_slice.boundary.x_point.z", composer.Computed([]string{"equilibrium._zxpt1", "equilibrium._zxpt2"}, m.composeXPointZ)},
	}
	for _, s := range specs {
		if err := b.Register(s.name, s.spec); err != nil {
			return err
		}
	}
	return nil
}

func (m *EquilibriumMapper) geqdsk(name string, shot int) composer.Requirement {
	return composer.NewRequirement(m.geqdskNode+"."+name, shot, m.efitTree)
}

func (m *EquilibriumMapper) aeqdsk(name string, shot int) composer.Requirement {
	return composer.NewRequirement(m.aeqdskNode+"."+name, shot, m.efitTree)
}

func (m *EquilibriumMapper) composeCodeName(int, composer.Cache) (composer.Value, error) {
	return composer.String(m.efitTree), nil
}

// composeTime converts GTIME from milliseconds to seconds.
func (m *EquilibriumMapper) composeTime(shot int, cache composer.Cache) (composer.Value, error) {
	gtime, err := cache.Vector(m.geqdsk("GTIME", shot))
	if err != nil {
		return composer.Value{}, err
	}
	return composer.Vector(scale(gtime, 1e-3)), nil
}

// composeOutlineR drops the zero-padded tail EFIT writes past the last real
// boundary point, leaving one variable-length outline per time slice.
func (m *EquilibriumMapper) composeOutlineR(shot int, cache composer.Cache) (composer.Value, error) {
	rv, err := cache.Get(m.geqdsk("RBBBS", shot))
	if err != nil {
		return composer.Value{}, err
	}
	rb, err := dense2D(rv)
	if err != nil {
		return composer.Value{}, err
	}
	rows := make([][]float64, rb.Shape[0])
	for i := range rows {
		src := rb.Row(i)
		row := make([]float64, 0, len(src))
		for _, r := range src {
			if r != 0 {
				row = append(row, r)
			}
		}
		rows[i] = row
	}
	return composer.NewRagged(rows), nil
}

// composeOutlineZ filters Z by the R padding mask so the two outlines stay
// point-aligned.
func (m *EquilibriumMapper) composeOutlineZ(shot int, cache composer.Cache) (composer.Value, error) {
	rv, err := cache.Get(m.geqdsk("RBBBS", shot))
	if err != nil {
		return composer.Value{}, err
	}
	rb, err := dense2D(rv)
	if err != nil {
		return composer.Value{}, err
	}
	zv, err := cache.Get(m.geqdsk("ZBBBS", shot))
	if err != nil {
		return composer.Value{}, err
	}
	zb, err := dense2D(zv)
	if err != nil {
		return composer.Value{}, err
	}
	if rb.Shape[0] != zb.Shape[0] || rb.Shape[1] != zb.Shape[1] {
		return composer.Value{}, fmt.Errorf("RBBBS is %dx%d but ZBBBS is %dx%d",
			rb.Shape[0], rb.Shape[1], zb.Shape[0], zb.Shape[1])
	}
	rows := make([][]float64, rb.Shape[0])
	for i := range rows {
		rRow, zRow := rb.Row(i), zb.Row(i)
		row := make([]float64, 0, len(zRow))
		for j, r := range rRow {
			if r != 0 {
				row = append(row, zRow[j])
			}
		}
		rows[i] = row
	}
	return composer.NewRagged(rows), nil
}

// composeXPointR stacks the primary and secondary X-point radii into a
// (n_time, 2) block, with zeros (slices without that X-point) masked to NaN.
func (m *EquilibriumMapper) composeXPointR(shot int, cache composer.Cache) (composer.Value, error) {
	return m.composeXPoint(cache, m.aeqdsk("RXPT1", shot), m.aeqdsk("RXPT2", shot))
}

// composeXPointZ stacks the X-point heights the same way.
func (m *EquilibriumMapper) composeXPointZ(shot int, cache composer.Cache) (composer.Value, error) {
	return m.composeXPoint(cache, m.aeqdsk("ZXPT1", shot), m.aeqdsk("ZXPT2", shot))
}

func (m *EquilibriumMapper) composeXPoint(cache composer.Cache, first, second composer.Requirement) (composer.Value, error) {
	p1, err := cache.Vector(first)
	if err != nil {
		return composer.Value{}, err
	}
	p2, err := cache.Vector(second)
	if err != nil {
		return composer.Value{}, err
	}
	if len(p1) != len(p2) {
		return composer.Value{}, fmt.Errorf("%s has %d slices but %s has %d",
			first.Path, len(p1), second.Path, len(p2))
	}
	return composer.Matrix(len(p1), 2, columnStack(maskZeros(p1), maskZeros(p2))), nil
}
