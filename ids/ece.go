package ids

import (
	"fmt"
	"math"

	"github.com/plasmakit/imascompose/composer"
)

// treeElectrons is the MDSplus tree carrying DIII-D ECE data.
const treeElectrons = "ELECTRONS"

// ECEMapper maps DIII-D electron cyclotron emission radiometer data to the
// ece IDS. The fast variant reads the high-frequency sampling nodes (TECEF).
type ECEMapper struct {
	setupNode string
	calNode   string
	teceNode  string
	numchPath string
	static    map[string]float64
	fields    []string
}

// NewECEMapper creates an ECE mapper for the standard or fast radiometer.
func NewECEMapper(fastECE bool) (*ECEMapper, error) {
	tbl, err := loadTable(eceTable)
	if err != nil {
		return nil, fmt.Errorf("ece table: %w", err)
	}
	suffix := ""
	if fastECE {
		suffix = "F"
	}
	m := &ECEMapper{
		setupNode: `\ECE::TOP.SETUP.`,
		calNode:   `\ECE::TOP.CAL` + suffix + `.`,
		teceNode:  `\ECE::TOP.TECE.TECE` + suffix,
		static:    tbl.StaticValues,
		fields:    tbl.Fields,
	}
	m.numchPath = m.calNode + "NUMCH" + suffix
	return m, nil
}

// IDS returns the IDS name this mapper provides.
func (m *ECEMapper) IDS() string { return "ece" }

// Fields returns the public output paths, relative to the IDS root.
func (m *ECEMapper) Fields() []string { return m.fields }

// Register adds the ECE specs to the builder.
func (m *ECEMapper) Register(b *composer.Builder) error {
	specs := []struct {
		name string
		spec composer.EntrySpec
	}{
		{"ece._numch", composer.Direct(composer.NewRequirement(m.numchPath, 0, treeElectrons))},
		{"ece._ecephi", composer.Direct(composer.NewRequirement(m.setupNode+"ECEPHI", 0, treeElectrons))},
		{"ece._ecetheta", composer.Direct(composer.NewRequirement(m.setupNode+"ECETHETA", 0, treeElectrons))},
		{"ece._ecezh", composer.Direct(composer.NewRequirement(m.setupNode+"ECEZH", 0, treeElectrons))},
		{"ece._freq", composer.Direct(composer.NewRequirement(m.setupNode+"FREQ", 0, treeElectrons))},
		{"ece._fltrwid", composer.Direct(composer.NewRequirement(m.setupNode+"FLTRWID", 0, treeElectrons))},
		{"ece._time_base", composer.Direct(composer.NewRequirement(m.timeBasePath(), 0, treeElectrons))},
		{"ece._temperature_data", composer.Derived([]string{"ece._numch"}, m.deriveTemperatureRequirements)},

		{"ece.ids_properties.homogeneous_time", composer.Computed(nil, staticCompose(m.static, "ece", "ids_properties.homogeneous_time"))},
		{"ece.line_of_sight.first_point.r", composer.Computed(nil, staticCompose(m.static, "ece", "line_of_sight.first_point.r"))},
		{"ece.line_of_sight.first_point.phi", composer.Computed([]string{"ece._ecephi"}, m.composePointPhi)},
		{"ece.line_of_sight.first_point.z", composer.Computed([]string{"ece._ecezh"}, m.composeFirstPointZ)},
		{"ece.line_of_sight.second_point.r", composer.Computed(nil, staticCompose(m.static, "ece", "line_of_sight.second_point.r"))},
		{"ece.line_of_sight.second_point.phi", composer.Computed([]string{"ece._ecephi"}, m.composePointPhi)},
		{"ece.line_of_sight.second_point.z", composer.Computed([]string{"ece._ecezh", "ece._ecetheta"}, m.composeSecondPointZ)},
		{"ece.channel.name", composer.Computed([]string{"ece._numch"}, m.composeChannelName)},
		{"ece.channel.identifier", composer.Computed([]string{"ece._numch"}, m.composeChannelIdentifier)},
		{"ece.channel.time", composer.Computed([]string{"ece._time_base", "ece._numch"}, m.composeChannelTime)},
		{"ece.channel.frequency.data", composer.Computed([]string{"ece._freq", "ece._time_base", "ece._numch"}, m.composeChannelFrequency)},
		{"ece.channel.if_bandwidth", composer.Computed([]string{"ece._fltrwid", "ece._numch"}, m.composeChannelIFBandwidth)},
		{"ece.channel.t_e.data", composer.Computed([]string{"ece._temperature_data"}, m.composeTemperature)},
		{"ece.channel.t_e.data_error_upper", composer.Computed([]string{"ece._temperature_data"}, m.composeTemperatureErrorUpper)},
	}
	for _, s := range specs {
		if err := b.Register(s.name, s.spec); err != nil {
			return err
		}
	}
	return nil
}

func (m *ECEMapper) channelPath(ch int) string {
	return fmt.Sprintf("%s%02d", m.teceNode, ch)
}

// timeBasePath is the shared time base of all channels; channel 01 carries it.
func (m *ECEMapper) timeBasePath() string {
	return fmt.Sprintf("dim_of(%s01)", m.teceNode)
}

func (m *ECEMapper) numch(shot int, cache composer.Cache) (int, error) {
	return cache.Int(composer.NewRequirement(m.numchPath, shot, treeElectrons))
}

// deriveTemperatureRequirements expands to one requirement per calibrated
// channel; the channel count is itself fetched data.
func (m *ECEMapper) deriveTemperatureRequirements(shot int, cache composer.Cache) ([]composer.Requirement, error) {
	n, err := m.numch(shot, cache)
	if err != nil {
		return nil, err
	}
	reqs := make([]composer.Requirement, 0, n)
	for ch := 1; ch <= n; ch++ {
		reqs = append(reqs, composer.NewRequirement(m.channelPath(ch), shot, treeElectrons))
	}
	return reqs, nil
}

// composePointPhi serves both line-of-sight endpoints: the ECE view is
// horizontal, so first and second point share the toroidal angle.
func (m *ECEMapper) composePointPhi(shot int, cache composer.Cache) (composer.Value, error) {
	phi, err := cache.Float(composer.NewRequirement(m.setupNode+"ECEPHI", shot, treeElectrons))
	if err != nil {
		return composer.Value{}, err
	}
	return composer.Scalar(deg2rad(phi)), nil
}

func (m *ECEMapper) composeFirstPointZ(shot int, cache composer.Cache) (composer.Value, error) {
	z, err := cache.Float(composer.NewRequirement(m.setupNode+"ECEZH", shot, treeElectrons))
	if err != nil {
		return composer.Value{}, err
	}
	return composer.Scalar(z), nil
}

func (m *ECEMapper) composeSecondPointZ(shot int, cache composer.Cache) (composer.Value, error) {
	z, err := cache.Float(composer.NewRequirement(m.setupNode+"ECEZH", shot, treeElectrons))
	if err != nil {
		return composer.Value{}, err
	}
	theta, err := cache.Float(composer.NewRequirement(m.setupNode+"ECETHETA", shot, treeElectrons))
	if err != nil {
		return composer.Value{}, err
	}
	return composer.Scalar(z + math.Sin(deg2rad(theta))), nil
}

func (m *ECEMapper) composeChannelName(shot int, cache composer.Cache) (composer.Value, error) {
	n, err := m.numch(shot, cache)
	if err != nil {
		return composer.Value{}, err
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("ECE%d", i+1)
	}
	return composer.Strings(names), nil
}

func (m *ECEMapper) composeChannelIdentifier(shot int, cache composer.Cache) (composer.Value, error) {
	n, err := m.numch(shot, cache)
	if err != nil {
		return composer.Value{}, err
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = m.channelPath(i + 1)
	}
	return composer.Strings(ids), nil
}

// composeChannelTime broadcasts the shared time base (ms converted to s) to
// every channel, (n_channels, n_time).
func (m *ECEMapper) composeChannelTime(shot int, cache composer.Cache) (composer.Value, error) {
	base, err := cache.Vector(composer.NewRequirement(m.timeBasePath(), shot, treeElectrons))
	if err != nil {
		return composer.Value{}, err
	}
	n, err := m.numch(shot, cache)
	if err != nil {
		return composer.Value{}, err
	}
	seconds := scale(base, 1e-3)
	return composer.Matrix(n, len(seconds), tileRows(seconds, n)), nil
}

// composeChannelFrequency broadcasts each channel's center frequency (GHz
// converted to Hz) across the time base, (n_channels, n_time).
func (m *ECEMapper) composeChannelFrequency(shot int, cache composer.Cache) (composer.Value, error) {
	freq, err := cache.Vector(composer.NewRequirement(m.setupNode+"FREQ", shot, treeElectrons))
	if err != nil {
		return composer.Value{}, err
	}
	base, err := cache.Vector(composer.NewRequirement(m.timeBasePath(), shot, treeElectrons))
	if err != nil {
		return composer.Value{}, err
	}
	hz := scale(freq, 1e9)
	return composer.Matrix(len(hz), len(base), tileCols(hz, len(base))), nil
}

func (m *ECEMapper) composeChannelIFBandwidth(shot int, cache composer.Cache) (composer.Value, error) {
	bw, err := cache.Vector(composer.NewRequirement(m.setupNode+"FLTRWID", shot, treeElectrons))
	if err != nil {
		return composer.Value{}, err
	}
	return composer.Vector(scale(bw, 1e9)), nil
}

// composeTemperature converts per-channel temperatures from keV to eV and
// stacks them into a (n_channels, n_time) block.
func (m *ECEMapper) composeTemperature(shot int, cache composer.Cache) (composer.Value, error) {
	return m.stackChannels(shot, cache, func(tKeV float64) float64 {
		return tKeV * 1e3
	})
}

// composeTemperatureErrorUpper applies the ECE uncertainty model: Poisson
// noise on the eV value plus a 7% calibration error.
func (m *ECEMapper) composeTemperatureErrorUpper(shot int, cache composer.Cache) (composer.Value, error) {
	return m.stackChannels(shot, cache, func(tKeV float64) float64 {
		return math.Sqrt(math.Abs(tKeV*1e3)) + 70*math.Abs(tKeV)
	})
}

func (m *ECEMapper) stackChannels(shot int, cache composer.Cache, f func(float64) float64) (composer.Value, error) {
	n, err := m.numch(shot, cache)
	if err != nil {
		return composer.Value{}, err
	}
	var (
		data  []float64
		nTime int
	)
	for ch := 1; ch <= n; ch++ {
		row, err := cache.Vector(composer.NewRequirement(m.channelPath(ch), shot, treeElectrons))
		if err != nil {
			return composer.Value{}, err
		}
		if ch == 1 {
			nTime = len(row)
			data = make([]float64, 0, n*nTime)
		} else if len(row) != nTime {
			return composer.Value{}, fmt.Errorf("channel %02d has %d samples, want %d", ch, len(row), nTime)
		}
		for _, v := range row {
			data = append(data, f(v))
		}
	}
	return composer.Matrix(n, nTime, data), nil
}
